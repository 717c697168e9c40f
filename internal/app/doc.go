// Package app wires the dashboard together: configuration, logging and
// observability, the dataset service, the websocket hub, the data-directory
// watcher, and the HTTP server with its routes.
//
// The typical entry point is:
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then shuts the server, the watcher
// and the hub down gracefully. Initialization errors are returned rather
// than fatal-logged so main controls the exit.
package app
