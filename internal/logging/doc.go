// Package logging sets up structured JSON logging for classfind.
//
// Logs go to a size-rotated file under <data dir>/logs/classfind.log. The CLI also
// mirrors them to stderr with --debug; the MCP server never writes to stderr or stdout.
package logging
