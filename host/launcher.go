package host

import (
	"fmt"
	"log/slog"

	"github.com/LingHeChen/nodescript/request"
	"github.com/LingHeChen/nodescript/value"
)

// HTTPLauncher handles URL actions headlessly by fetching the URL and
// logging the result, which is what the runner wants outside a desktop.
type HTTPLauncher struct {
	Client *request.Client
	Logger *slog.Logger
}

func (l HTTPLauncher) OpenURL(url string) error {
	client := l.Client
	if client == nil {
		client = request.New()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resp, err := client.Do(value.Obj(value.ObjectOf("get", url)))
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	logger.Info("opened url",
		slog.String("url", url),
		slog.String("status", resp.Status),
		slog.Duration("duration", resp.Duration))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("open %s: %s", url, resp.Status)
	}
	return nil
}

// RecordingLauncher remembers opened URLs instead of touching the network
type RecordingLauncher struct {
	Opened []string
}

func (l *RecordingLauncher) OpenURL(url string) error {
	l.Opened = append(l.Opened, url)
	return nil
}
