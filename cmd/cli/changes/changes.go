package changes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crucial707/coursevault/cmd/cli/config"
	"github.com/crucial707/coursevault/cmd/cli/output"
	"github.com/crucial707/coursevault/internal/models"
)

// ==========================
// Init Changes
// ==========================
func InitChanges(rootCmd *cobra.Command) {

	changesCmd := &cobra.Command{
		Use:   "changes",
		Short: "Submit and track change requests",
	}

	changesCmd.AddCommand(
		uploadCmd(),
		renameCmd(),
		deleteCmd(),
		listCmd(),
		cancelCmd(),
	)

	rootCmd.AddCommand(changesCmd)
}

// ==========================
// UPLOAD
// ==========================
func uploadCmd() *cobra.Command {
	var file, targetPath string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Propose uploading a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			buf := &bytes.Buffer{}
			mw := multipart.NewWriter(buf)
			if err := mw.WriteField("targetPath", targetPath); err != nil {
				return err
			}
			fw, err := mw.CreateFormFile("file", filepath.Base(file))
			if err != nil {
				return err
			}
			if _, err := io.Copy(fw, f); err != nil {
				return err
			}
			mw.Close()

			req, err := http.NewRequest("POST", config.APIURL()+"/changes/upload", buf)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			var out struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			if err := doJSON(req, &out); err != nil {
				return err
			}
			fmt.Printf("Submitted change %s (%s)\n", out.ID, out.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "local file to upload")
	cmd.Flags().StringVar(&targetPath, "target", "", "target path, e.g. /contents/week1/notes.pdf")

	return cmd
}

// ==========================
// RENAME
// ==========================
func renameCmd() *cobra.Command {
	var sourcePath, targetPath string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Propose renaming or moving a published file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			err := postAuthedJSON("/changes/rename", map[string]string{
				"sourcePath": sourcePath,
				"targetPath": targetPath,
			}, &out)
			if err != nil {
				return err
			}
			fmt.Printf("Submitted change %s (%s)\n", out.ID, out.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourcePath, "from", "", "current path")
	cmd.Flags().StringVar(&targetPath, "to", "", "new path")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteCmd() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Propose deleting a published file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			if err := postAuthedJSON("/changes/delete", map[string]string{"targetPath": targetPath}, &out); err != nil {
				return err
			}
			fmt.Printf("Submitted change %s (%s)\n", out.ID, out.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "target", "", "path to delete")

	return cmd
}

// ==========================
// LIST
// ==========================
func listCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your change requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			url := config.APIURL() + "/changes"
			if status != "" {
				url += "?status=" + status
			}
			req, err := http.NewRequest("GET", url, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)

			var out struct {
				Changes []models.ChangeRequest `json:"changes"`
			}
			if err := doJSON(req, &out); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(out.Changes))
			for _, c := range out.Changes {
				rows = append(rows, []interface{}{c.ID, c.Type, c.Status, c.TargetPath, c.CreatedAt.Format("2006-01-02 15:04")})
			}
			output.RenderTable([]string{"ID", "Type", "Status", "Target", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")

	return cmd
}

// ==========================
// CANCEL
// ==========================
func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel one of your pending change requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, err := http.NewRequest("DELETE", config.APIURL()+"/changes/"+args[0], nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)

			if err := doJSON(req, nil); err != nil {
				return err
			}
			fmt.Println("Cancelled.")
			return nil
		},
	}
}

func postAuthedJSON(path string, payload interface{}, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return doJSON(req, out)
}

func doJSON(req *http.Request, out interface{}) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}
