// Package runtime wires Pebble storage, the chunk codec, the batch writer
// and the timeline store for one data directory.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//	tl := rt.Store().Timeline("user-1")
//	e, _ := tl.Append(ctx, timeline.Message{Content: []byte("hello")})
package runtime
