// Package app holds the top-level workbench state: the accepted file,
// whether the viewer view is open, and the save flag mirrored from the
// viewer. It routes file intake, viewer actions and user notifications.
package app
