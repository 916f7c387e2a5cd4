package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func getSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*state.GameState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get session: %s", errorResp.Error)
	}

	var gs state.GameState
	if err := json.Unmarshal(body, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &gs, nil
}

// CreateSessionRequest matches the API request structure
type CreateSessionRequest struct {
	Config           schema.StoryConfig `json:"config"`
	OpeningNarration string             `json:"opening_narration,omitempty"`
}

func createSession(client *http.Client, baseURL string, cfg schema.StoryConfig, opening string) (*state.GameState, error) {
	req := CreateSessionRequest{
		Config:           cfg,
		OpeningNarration: opening,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create session: %s", errorResp.Error)
	}

	var gs state.GameState
	if err := json.Unmarshal(body, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	return &gs, nil
}

func sendTurn(client *http.Client, baseURL string, sessionID uuid.UUID, message string) (*chat.TurnResponse, error) {
	reqBody := map[string]any{
		"message": message,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/turns", baseURL, sessionID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("turn request failed: %s", errorResp.Error)
	}

	var turnResp chat.TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &turnResp, nil
}

func nextOnboardingStep(client *http.Client, baseURL string, history []chat.ChatMessage, answer string) (*schema.OnboardingStep, error) {
	reqBody := map[string]any{
		"history": history,
		"answer":  answer,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/onboarding",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("onboarding request failed: %s", errorResp.Error)
	}

	var step schema.OnboardingStep
	if err := json.Unmarshal(body, &step); err != nil {
		return nil, fmt.Errorf("failed to parse onboarding response: %w", err)
	}

	return &step, nil
}

func getActionOptions(client *http.Client, baseURL string, sessionID uuid.UUID) (*schema.ActionOptionsResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s/actions", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("options request failed: %s", errorResp.Error)
	}

	var options schema.ActionOptionsResponse
	if err := json.Unmarshal(body, &options); err != nil {
		return nil, fmt.Errorf("failed to parse options response: %w", err)
	}

	return &options, nil
}
