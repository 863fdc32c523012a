package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// DiscordUser is the subset of /users/@me the login needs.
type DiscordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name over the unique username.
func (u *DiscordUser) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// fetchDiscordUser calls /users/@me with the token's authorized client.
func (a *API) fetchDiscordUser(ctx context.Context, token *oauth2.Token) (*DiscordUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	client := a.oauthConfig.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.discordAPI+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "tweetguessr (https://github.com/susu3304/tweetguessr)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord /users/@me: status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode discord user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("discord user without id")
	}
	return &user, nil
}
