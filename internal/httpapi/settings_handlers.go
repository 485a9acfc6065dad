package httpapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/lingo/internal/auth"
	"horse.fit/lingo/internal/settings"
)

//go:embed settings_schema.json
var settingsSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type settingsView struct {
	settings.Settings
	PasswordProtected bool `json:"passwordProtected"`
}

func buildSettingsView(s settings.Settings) settingsView {
	return settingsView{
		Settings:          s,
		PasswordProtected: s.PasswordHash != "",
	}
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return success(c, map[string]any{
		"settings": buildSettingsView(s.settings.Current()),
	})
}

// handlePutSettings applies a partial update: fields absent from the payload
// keep their current values. When a settings password is set, writes require
// it in the X-Settings-Password header.
func (s *Server) handlePutSettings(c echo.Context) error {
	current := s.settings.Current()

	if current.PasswordHash != "" {
		password := c.Request().Header.Get("X-Settings-Password")
		if !auth.VerifyPassword(password, current.PasswordHash) {
			return failUnauthorized(c, "Invalid settings password")
		}
	}

	body, err := readRequestBody(c)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if err := validateSettingsPayload(body); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	updated := current
	if err := json.Unmarshal(body, &updated); err != nil {
		return failValidation(c, map[string]string{"body": "request body is not valid JSON"})
	}

	var passwordField struct {
		SettingsPassword *string `json:"settingsPassword"`
	}
	if err := json.Unmarshal(body, &passwordField); err == nil && passwordField.SettingsPassword != nil {
		password := strings.TrimSpace(*passwordField.SettingsPassword)
		if password == "" {
			updated.PasswordHash = ""
		} else {
			hash, hashErr := auth.HashPassword(password)
			if hashErr != nil {
				return internalError(c, "Failed to update settings password")
			}
			updated.PasswordHash = hash
		}
	}

	if err := s.settings.Save(c.Request().Context(), updated); err != nil {
		s.logger.Error().Err(err).Msg("save settings failed")
		return internalError(c, "Failed to save settings")
	}

	return success(c, map[string]any{
		"settings": buildSettingsView(updated),
	})
}

func (s *Server) handleToggleSettings(c echo.Context) error {
	current := s.settings.Current()
	current.Enabled = !current.Enabled

	if err := s.settings.Save(c.Request().Context(), current); err != nil {
		s.logger.Error().Err(err).Msg("toggle settings failed")
		return internalError(c, "Failed to save settings")
	}

	return success(c, map[string]any{
		"enabled": current.Enabled,
	})
}

func validateSettingsPayload(body []byte) error {
	value, err := decodeStrictJSON(body)
	if err != nil {
		return err
	}

	schema, err := loadSettingsSchema()
	if err != nil {
		return fmt.Errorf("load settings schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func loadSettingsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("settings_schema.json", strings.NewReader(settingsSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("settings_schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if schemaErr != nil {
		return nil, schemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
