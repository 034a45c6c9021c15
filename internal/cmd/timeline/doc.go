// Package timelinecmd provides the `timeline` command-line tool.
//
// The commands open the local data directory directly; there is no server.
// Every command prints one JSON object per entry on stdout.
//
// Usage
//
//	timeline append --timeline user-1 --data 'hello' --attr kind=chat
//	timeline append --timeline user-1 --data-b64 AAEC --id msg-42 --async
//
//	timeline get --timeline user-1 --seq 1726833600000123
//	timeline update --timeline user-1 --seq 1726833600000123 --data 'edited'
//	timeline delete --timeline user-1 --seq 1726833600000123
//
//	# newest first, only chat messages
//	timeline scan --timeline user-1 --direction backward --limit 20 \
//	    --filter 'attributes["kind"] == "chat"'
//
//	# block until messages after a sequence arrive; --follow keeps going
//	timeline tail --timeline user-1 --after 1726833600000123 --follow
//
// Global flags
//
//   - --data-dir selects the Pebble directory (default: OS application data
//     directory, or TIMELINE_DATA_DIR).
//   - --config loads a JSON or YAML file; TIMELINE_* variables are applied
//     on top.
package timelinecmd
