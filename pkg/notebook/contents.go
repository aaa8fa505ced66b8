package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/nbprobe/pkg/discovery"
)

// contentsClient talks to the notebook server REST contents API.
type contentsClient struct {
	server discovery.ServerRecord
	client *http.Client
}

func newContentsClient(server discovery.ServerRecord) *contentsClient {
	return &contentsClient{server: server, client: &http.Client{Timeout: 30 * time.Second}}
}

// notebookModel is the nbformat 4 document stored through the contents API.
type notebookModel struct {
	Type    string          `json:"type"`
	Format  string          `json:"format"`
	Content notebookContent `json:"content"`
}

type notebookContent struct {
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`
	Metadata      notebookMetadata `json:"metadata"`
	Cells         []any            `json:"cells"`
}

type notebookMetadata struct {
	KernelSpec kernelSpec `json:"kernelspec"`
}

type kernelSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// create stores an empty notebook bound to kernel under a unique name and returns its path.
func (c *contentsClient) create(ctx context.Context, kernel string) (string, error) {
	path := "nbprobe-" + uuid.NewString() + ".ipynb"
	body, err := json.Marshal(notebookModel{
		Type:   "notebook",
		Format: "json",
		Content: notebookContent{
			NBFormat:      4,
			NBFormatMinor: 4,
			Metadata:      notebookMetadata{KernelSpec: kernelSpec{Name: kernel, DisplayName: kernel}},
			Cells:         []any{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal notebook: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create notebook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create notebook %s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return path, nil
}

// remove deletes a notebook created with create.
func (c *contentsClient) remove(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, http.NoBody)
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete notebook %s: %s", path, resp.Status)
	}
	return nil
}

func (c *contentsClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := c.request(ctx, method, "api/contents/"+url.PathEscape(path), body)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// notebookURL is the page address of a stored notebook, authenticated with the server token.
func notebookURL(server discovery.ServerRecord, path string) string {
	u := server.Root() + "notebooks/" + url.PathEscape(path)
	if server.Token != "" {
		u += "?token=" + url.QueryEscape(server.Token)
	}
	return u
}

type sessionModel struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Notebook struct {
		Path string `json:"path"`
	} `json:"notebook"`
}

// shutdown stops kernel sessions opened for path, the notebook file itself is left alone.
func (c *contentsClient) shutdown(ctx context.Context, path string) error {
	req, err := c.request(ctx, http.MethodGet, "api/sessions", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("list sessions: %s", resp.Status)
	}

	var sessions []sessionModel
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}

	for _, s := range sessions {
		if s.Path != path && s.Notebook.Path != path {
			continue
		}
		req, err := c.request(ctx, http.MethodDelete, "api/sessions/"+url.PathEscape(s.ID), http.NoBody)
		if err != nil {
			return err
		}
		dresp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("delete session %s: %w", s.ID, err)
		}
		dresp.Body.Close()
	}
	return nil
}

func (c *contentsClient) request(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.server.Root()+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("make request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.server.Token != "" {
		req.Header.Set("Authorization", "token "+c.server.Token)
	}
	return req, nil
}
