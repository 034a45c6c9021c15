package timelinecmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	cfgpkg "github.com/aliyun/tablestore-timeline-sub000/internal/config"
	"github.com/aliyun/tablestore-timeline-sub000/internal/runtime"
	"github.com/aliyun/tablestore-timeline-sub000/internal/timeline"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// NewRoot constructs the root `timeline` command. A nil logger selects one
// built from the loaded configuration.
func NewRoot(logger logpkg.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "timeline",
		Short:         "Store and read timeline messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("data-dir", "", "Data directory (if not specified, uses TIMELINE_DATA_DIR or the OS application data directory)")
	root.PersistentFlags().String("config", "", "Config file (.json, .yaml or .yml)")
	root.PersistentFlags().String("timeline", "", "Timeline id")

	root.AddCommand(
		newAppendCommand(logger),
		newUpdateCommand(logger),
		newGetCommand(logger),
		newDeleteCommand(logger),
		newScanCommand(logger),
		newTailCommand(logger),
	)
	return root
}

// withTimeline opens the runtime for one command and closes it afterwards.
func withTimeline(cmd *cobra.Command, logger logpkg.Logger, fn func(context.Context, *timeline.Timeline) error) error {
	id, _ := cmd.Flags().GetString("timeline")
	if id == "" {
		return fmt.Errorf("--timeline is required")
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return err
	}
	cfgpkg.FromEnv(&cfg)
	dataDir, _ := cmd.Flags().GetString("data-dir")

	rt, err := runtime.Open(runtime.Options{DataDir: dataDir, Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := fn(ctx, rt.Store().Timeline(id))
	if err := rt.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// readMessage builds a message from --id, --data, --data-b64 and --attr.
func readMessage(cmd *cobra.Command) (timeline.Message, error) {
	var m timeline.Message
	m.ID, _ = cmd.Flags().GetString("id")
	data, _ := cmd.Flags().GetString("data")
	dataB64, _ := cmd.Flags().GetString("data-b64")
	switch {
	case data != "" && dataB64 != "":
		return m, fmt.Errorf("use either --data or --data-b64")
	case dataB64 != "":
		b, err := base64.StdEncoding.DecodeString(dataB64)
		if err != nil {
			return m, fmt.Errorf("invalid --data-b64: %w", err)
		}
		m.Content = b
	default:
		m.Content = []byte(data)
	}
	attrs, _ := cmd.Flags().GetStringArray("attr")
	if len(attrs) > 0 {
		m.Attributes = make(map[string]string, len(attrs))
		for _, kv := range attrs {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return m, fmt.Errorf("invalid --attr %q; expected key=value", kv)
			}
			m.Attributes[k] = v
		}
	}
	return m, nil
}

func addMessageFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "Message id (random UUID when empty on append)")
	cmd.Flags().String("data", "", "Message content as text")
	cmd.Flags().String("data-b64", "", "Message content as base64")
	cmd.Flags().StringArray("attr", nil, "Attribute key=value (repeatable)")
}

// printEntry writes e as one JSON line. Content is printed as text when it is
// valid UTF-8 and as base64 otherwise.
func printEntry(w io.Writer, e timeline.Entry) error {
	out := map[string]any{
		"sequence":   e.SequenceID,
		"message_id": e.ID,
	}
	if len(e.Attributes) > 0 {
		out["attributes"] = e.Attributes
	}
	if utf8.Valid(e.Content) {
		out["content_text"] = string(e.Content)
	} else {
		out["content_b64"] = base64.StdEncoding.EncodeToString(e.Content)
	}
	return json.NewEncoder(w).Encode(out)
}
