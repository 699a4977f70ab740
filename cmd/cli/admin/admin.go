package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/coursevault/cmd/cli/config"
	"github.com/crucial707/coursevault/cmd/cli/output"
	"github.com/crucial707/coursevault/internal/models"
)

// ==========================
// Init Admin
// ==========================
func InitAdmin(rootCmd *cobra.Command) {

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Review queue, publishing, and audit (admin role)",
	}

	adminCmd.AddCommand(
		queueCmd(),
		reviewCmd(),
		publishCmd(),
		auditCmd(),
		rebuildCmd(),
	)

	rootCmd.AddCommand(adminCmd)
}

// ==========================
// QUEUE
// ==========================
func queueCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the review queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := "/admin/queue"
			if status != "" {
				url += "?status=" + status
			}

			var out struct {
				Queue []models.QueueEntry `json:"queue"`
			}
			if err := getAuthed(url, &out); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(out.Queue))
			for _, c := range out.Queue {
				rows = append(rows, []interface{}{c.ID, c.UserName, c.Type, c.TargetPath, c.CreatedAt.Format("2006-01-02 15:04")})
			}
			output.RenderTable([]string{"ID", "User", "Type", "Target", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "queue status (default pending)")

	return cmd
}

// ==========================
// REVIEW
// ==========================
func reviewCmd() *cobra.Command {
	var action, note string

	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Approve or reject a pending change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			err := postAuthed("/admin/review/"+args[0], map[string]string{
				"action": action,
				"note":   note,
			}, &out)
			if err != nil {
				return err
			}
			fmt.Printf("Change %s is now %s\n", out.ID, out.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "approve or reject")
	cmd.Flags().StringVar(&note, "note", "", "optional review note")

	return cmd
}

// ==========================
// PUBLISH
// ==========================
func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish an approved change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			if err := postAuthed("/admin/publish/"+args[0], nil, &out); err != nil {
				return err
			}
			fmt.Printf("Change %s is now %s\n", out.ID, out.Status)
			return nil
		},
	}
}

// ==========================
// AUDIT
// ==========================
func auditCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := "/admin/audit?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)

			var out struct {
				Entries []models.AuditEntry `json:"audit"`
			}
			if err := getAuthed(url, &out); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(out.Entries))
			for _, e := range out.Entries {
				rows = append(rows, []interface{}{e.ID, e.UserName, e.Action, e.TargetID, e.CreatedAt.Format("2006-01-02 15:04")})
			}
			output.RenderTable([]string{"ID", "User", "Action", "Target", "At"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "entries to fetch (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}

// ==========================
// MANIFEST REBUILD
// ==========================
func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-manifest",
		Short: "Rebuild the published manifest from the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Success  bool `json:"success"`
				Children int  `json:"children"`
			}
			if err := postAuthed("/admin/manifest/rebuild", nil, &out); err != nil {
				return err
			}
			fmt.Printf("Manifest rebuilt (%d top-level entries)\n", out.Children)
			return nil
		},
	}
}

func getAuthed(path string, out interface{}) error {
	req, err := authedRequest("GET", path, nil)
	if err != nil {
		return err
	}
	return doJSON(req, out)
}

func postAuthed(path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}
	req, err := authedRequest("POST", path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(req, out)
}

func authedRequest(method, path string, body io.Reader) (*http.Request, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}
	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func doJSON(req *http.Request, out interface{}) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
