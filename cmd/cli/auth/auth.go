package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vireo-pm/vireo/cmd/cli/root"
)

const tokenFileName = ".vireo_token"

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate against the Vireo API",
		Long:  "Login or logout. The JWT token is stored locally for other commands.",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login and save the API token",
		RunE:  runLogin,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		RunE:  runLogout,
	}

	authCmd.AddCommand(loginCmd, logoutCmd)
	root.GetRoot().AddCommand(authCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	var username, password string
	fmt.Print("Username: ")
	fmt.Scanln(&username)
	fmt.Print("Password: ")
	fmt.Scanln(&password)

	payload := map[string]string{"username": username, "password": password}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(root.APIBase()+"/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", strings.TrimSpace(string(data)))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &out); err != nil || out.Token == "" {
		return fmt.Errorf("invalid login response")
	}

	if err := SaveToken(out.Token); err != nil {
		return err
	}
	fmt.Println("Logged in.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken writes the JWT token to the token file (0600).
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// LoadToken reads the saved JWT token. Returns an error when not logged in.
func LoadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("not logged in, run: vireo auth login")
	}
	return strings.TrimSpace(string(data)), nil
}

// Get performs an authenticated GET against the API and returns the body.
func Get(path string) ([]byte, error) {
	return do("GET", path, nil)
}

// Post performs an authenticated POST with a JSON body and returns the body.
func Post(path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return do("POST", path, body)
}

func do(method, path string, body []byte) ([]byte, error) {
	token, err := LoadToken()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, root.APIBase()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
