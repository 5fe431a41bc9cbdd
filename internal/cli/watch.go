package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/setu007/play-scraper-render/internal/scraper"
)

const defaultAPIURL = "http://localhost:3000"

func newWatchCmd(_ *globals) *cobra.Command {
	var (
		apiURL    string
		tokenPath string
		once      bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run progress from a server's /ws stream",
		Long: `Connect to the server's WebSocket event stream and print run progress as it
happens. Reconnects after a second when the connection drops, unless --once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := websocketURL(apiURL, "/ws")
			if err != nil {
				return err
			}
			token, err := readToken(tokenPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			for {
				err := watchOnce(cmd, wsURL, token)
				if once || ctx.Err() != nil {
					return err
				}
				color.New(color.Faint).Fprintf(cmd.ErrOrStderr(), "disconnected: %v, retrying\n", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", defaultAPIURL, "API base URL")
	cmd.Flags().StringVar(&tokenPath, "token-file", defaultTokenPath(), "Token saved by \"token request\"")
	cmd.Flags().BoolVar(&once, "once", false, "Exit when the connection closes")
	return cmd
}

func watchOnce(cmd *cobra.Command, wsURL, token string) error {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-cmd.Context().Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		}
		printEvent(cmd.OutOrStdout(), msg)
	}
}

// printEvent renders one message from /ws. Anything that is not a run event is
// printed raw.
func printEvent(w io.Writer, msg []byte) {
	var ev scraper.Event
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type == "" {
		fmt.Fprintln(w, string(msg))
		return
	}

	ts := ev.At.Local().Format("15:04:05")
	switch ev.Type {
	case scraper.EventRunStarted:
		color.New(color.Bold).Fprintf(w, "%s run %s started (%d keywords)\n", ts, ev.RunID, ev.Count)
	case scraper.EventKeywordStarted:
		fmt.Fprintf(w, "%s   keyword %q\n", ts, ev.Keyword)
	case scraper.EventKeywordFinished:
		fmt.Fprintf(w, "%s   keyword %q done, %d resolved\n", ts, ev.Keyword, ev.Count)
	case scraper.EventAppFailed:
		color.New(color.FgYellow).Fprintf(w, "%s   ! %s\n", ts, ev.Message)
	case scraper.EventRunFinished:
		line := fmt.Sprintf("%s run %s finished, %d publishers", ts, ev.RunID, ev.Count)
		if ev.Message != "" {
			line += ", " + ev.Message
		}
		color.New(color.FgGreen).Fprintln(w, line)
	default:
		fmt.Fprintln(w, string(msg))
	}
}
