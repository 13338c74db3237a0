// Package http exposes the molx workbench over a JSON API.
//
// Routes:
//
//	GET    /                 liveness
//	GET    /health           component stats
//	POST   /files            multipart "file" upload
//	GET    /files/current    accepted file
//	DELETE /files/current    remove file and close the viewer
//	POST   /viewer/open      open the viewer ({"view_id"} optional)
//	POST   /viewer/close     dispose the viewer
//	GET    /viewer           state and flags
//	POST   /viewer/events    forward a change ({"kind", "ref"})
//	POST   /viewer/save      persist the view
//	POST   /viewer/reset     delete the persisted view and reload
//	GET    /viewer/snapshot  persisted session record
//	GET    /stream           WebSocket push channel
//	GET    /metrics          Prometheus exposition
//
// Errors are returned as {"error": "..."} with 400, 409, 413, 500 or 503
// depending on the domain error.
package http
