package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// FileTokenSource builds a TokenSourceFunc from an OAuth client credentials
// file and a saved token file. All household users share one token; per-user
// tokens can be layered on later by switching on userID.
func FileTokenSource(credentialsFile, tokenFile string) TokenSourceFunc {
	return func(ctx context.Context, _ string) (oauth2.TokenSource, error) {
		creds, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		conf, err := google.ConfigFromJSON(creds, gcal.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		var tok oauth2.Token
		if err := json.Unmarshal(data, &tok); err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		return conf.TokenSource(ctx, &tok), nil
	}
}
