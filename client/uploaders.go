package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadFromReader posts binary data to the engine's upload endpoint and
// returns the filename the engine chose for it (it may differ from the
// requested name).  The returned name is what builders wire into LoadImage.
func (c *Client) UploadFromReader(r io.Reader, filename string, overwrite bool) (string, error) {
	var requestBody bytes.Buffer

	writer := multipart.NewWriter(&requestBody)
	formFile, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(formFile, r); err != nil {
		return "", err
	}
	_ = writer.WriteField("overwrite", fmt.Sprintf("%v", overwrite))
	_ = writer.WriteField("type", "input")
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/upload/image", c.serverBaseAddress), &requestBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed: %d - %s", resp.StatusCode, resp.Status)
	}

	var data struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if data.Name == "" {
		return "", fmt.Errorf("upload response carried no filename")
	}
	return data.Name, nil
}

// UploadFromPath uploads a file from disk.
func (c *Client) UploadFromPath(path string, overwrite bool) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return c.UploadFromReader(file, filepath.Base(path), overwrite)
}
