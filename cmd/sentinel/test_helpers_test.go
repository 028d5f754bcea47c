package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
	users      *httptest.Server
}

type directoryUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// newDirectoryServer serves the identity and thumbnail lookups the track
// commands resolve identifiers through.
func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()

	known := []directoryUser{
		{ID: 156, Name: "builderman", DisplayName: "Builderman"},
		{ID: 261, Name: "shedletsky", DisplayName: "Shedletsky"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/usernames/users", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Usernames []string `json:"usernames"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var data []directoryUser
		for _, name := range req.Usernames {
			for _, user := range known {
				if strings.EqualFold(user.Name, name) {
					data = append(data, user)
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/v1/users/avatar-headshot", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"imageUrl": "https://cdn.example.com/headshot.png"}},
		})
	})
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		for _, user := range known {
			if r.URL.Path == fmt.Sprintf("/v1/users/%d", user.ID) {
				json.NewEncoder(w).Encode(user)
				return
			}
		}
		http.Error(w, `{"errors":[{"message":"user not found"}]}`, http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	users := newDirectoryServer(t)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[roblox]\nusers_base_url = %q\nthumbnails_base_url = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		users.URL,
		users.URL,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{configPath: configPath, baseDir: base, users: users}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
