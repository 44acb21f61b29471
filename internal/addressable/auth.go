package addressable

import (
	"context"
	"encoding/base64"
)

// BasicToken encodes credentials the way /auth expects them.
func BasicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// Authenticate checks basicToken against /auth. It is the one call that does
// not read the stored token.
func (c *Client) Authenticate(ctx context.Context, basicToken string) (*User, error) {
	const path = "/auth"
	var payload AuthorizedUserResponse
	if err := c.do(ctx, Request{Path: path, Intent: Read, Token: basicToken}, &payload); err != nil {
		return nil, err
	}
	if payload.User == nil {
		return nil, missingEnvelope(Read, path, "user")
	}
	return payload.User, nil
}

// MobileLogin registers deviceID and returns its access token.
func (c *Client) MobileLogin(ctx context.Context, deviceID string) (*MobileToken, error) {
	var payload MobileToken
	if err := c.send(ctx, "/auth/mobile_login", Create, MobileLoginRequest{DeviceID: deviceID}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MobileLogout ends the device session. The server expects an empty object.
func (c *Client) MobileLogout(ctx context.Context) (*LogoutResponse, error) {
	var payload LogoutResponse
	if err := c.send(ctx, "/auth/mobile_logout", Create, struct{}{}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
