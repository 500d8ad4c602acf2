package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chatguard/chatguard/util"

	"github.com/carlmjohnson/versioninfo"
)

// OCRClient talks to an OCR.space-compatible text extraction API.
type OCRClient struct {
	Client   http.Client
	Host     string
	ApiKey   string
	Language string
	MaxBytes int
}

// schema: https://ocr.space/ocrapi#PostParameters
type OCRResp struct {
	ParsedResults         []OCRResp_Result `json:"ParsedResults"`
	OCRExitCode           int              `json:"OCRExitCode"`
	IsErroredOnProcessing bool             `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage  `json:"ErrorMessage,omitempty"`
}

type OCRResp_Result struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
}

func NewOCRClient(host, apiKey, language string) OCRClient {
	return OCRClient{
		Client:   *util.RobustHTTPClientWithRetries(1),
		Host:     strings.TrimSuffix(host, "/"),
		ApiKey:   apiKey,
		Language: language,
		MaxBytes: DefaultMaxImageBytes,
	}
}

// Concatenates the text of all successfully parsed results.
func (resp *OCRResp) Text() (string, error) {
	if resp.IsErroredOnProcessing {
		return "", fmt.Errorf("OCR processing failed: %s", string(resp.ErrorMessage))
	}
	var parts []string
	for _, r := range resp.ParsedResults {
		if t := strings.TrimSpace(r.ParsedText); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// ExtractText uploads image bytes and returns any text found in them. An image with no text returns the empty string and no error.
func (c *OCRClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	mimeType, err := PreScreenImage(image, c.MaxBytes)
	if err != nil {
		return "", err
	}

	slog.Debug("sending image for text extraction", "mimetype", mimeType, "size", len(image))

	// generic HTTP form file upload, then parse the response JSON
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image."+strings.TrimPrefix(mimeType, "image/"))
	if err != nil {
		return "", err
	}
	if _, err = part.Write(image); err != nil {
		return "", err
	}
	if c.Language != "" {
		if err := writer.WriteField("language", c.Language); err != nil {
			return "", err
		}
	}
	if err := writer.WriteField("OCREngine", "2"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Host+"/parse/image", body)
	if err != nil {
		return "", err
	}

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		ocrAPIDuration.Observe(duration.Seconds())
	}()

	req.Header.Set("apikey", c.ApiKey)
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "chatguard/"+versioninfo.Short())

	res, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer res.Body.Close()

	ocrAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return "", fmt.Errorf("OCR request failed  statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(io.LimitReader(res.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read OCR resp body: %w", err)
	}

	var respObj OCRResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return "", fmt.Errorf("failed to parse OCR resp JSON: %w", err)
	}
	return respObj.Text()
}
