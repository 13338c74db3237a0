// Package intake validates user-selected structure files before they reach
// the viewer. Only .pdb and .cif files are accepted; a rejected candidate
// never replaces a previously accepted file.
package intake
