package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/overlay-cli/internal/calib"
	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/hierarchy"
)

// StringParam reads a string argument with a default.
func StringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// IntParam reads a numeric argument as int with a default.
func IntParam(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return def
}

// FloatParam reads a numeric argument with a default.
func FloatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}

// BoolParam reads a boolean argument with a default.
func BoolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// toYAML serializes v for an MCP text response.
func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func (s *mcpServer) handleExtractViewport(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := StringParam(params, "hierarchy", "")
	if text == "" {
		return mcp.NewToolResultError("hierarchy text is required"), nil
	}
	vp := hierarchy.ExtractViewport(text)
	if vp == nil {
		return mcp.NewToolResultError("no viewport bounds found in hierarchy"), nil
	}
	return mcp.NewToolResultText(toYAML(vp)), nil
}

func (s *mcpServer) handleSetTarget(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	device := StringParam(params, "device", "")
	pkg := StringParam(params, "package", "")
	if device == "" || pkg == "" {
		return mcp.NewToolResultError("device and package are required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord.SetTarget(device, pkg)
	cal, source := s.coord.Current()

	resp := map[string]interface{}{
		"device":  device,
		"package": pkg,
		"source":  source.String(),
	}
	if cal != nil {
		resp["calibration"] = cal
	}
	if w := s.coord.LastWarning(); w != "" {
		resp["warning"] = w
	}
	return mcp.NewToolResultText(toYAML(resp)), nil
}

func (s *mcpServer) handleDetect(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	xmlW := IntParam(params, "xml-width", 0)
	xmlH := IntParam(params, "xml-height", 0)
	shotW := IntParam(params, "screenshot-width", 0)
	shotH := IntParam(params, "screenshot-height", 0)
	observe := BoolParam(params, "observe", true)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result *calib.DetectionResult
	if observe {
		result = s.coord.ObserveDimensions(xmlW, xmlH, shotW, shotH)
	} else {
		result = s.coord.RunDetection(xmlW, xmlH, shotW, shotH)
	}
	if result == nil {
		return mcp.NewToolResultError("no detection result (invalid dimensions or auto-calibration disabled)"), nil
	}
	return mcp.NewToolResultText(toYAML(result)), nil
}

func (s *mcpServer) handleApply(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.coord.ApplyAutoCalibration() {
		return mcp.NewToolResultError("no detection result to apply"), nil
	}
	cal, source := s.coord.Current()
	return mcp.NewToolResultText(toYAML(map[string]interface{}{
		"source":      source.String(),
		"calibration": cal,
	})), nil
}

func (s *mcpServer) handleCurrent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cal, source := s.coord.Current()
	resp := map[string]interface{}{"source": source.String()}
	if cal != nil {
		resp["calibration"] = cal
	}
	return mcp.NewToolResultText(toYAML(resp)), nil
}

func (s *mcpServer) handleReset(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord.ResetToDefault()
	return mcp.NewToolResultText("calibration and preferences reset to defaults"), nil
}

// buildTransform assembles a transform from tool params, the session's
// current calibration, and the global preferences.
func (s *mcpServer) buildTransform(params map[string]interface{}) *geometry.Transform {
	shotW := FloatParam(params, "screenshot-width", 0)
	shotH := FloatParam(params, "screenshot-height", 0)
	cal, _ := s.coord.Current()
	return geometry.NewTransform(geometry.TransformParams{
		ViewportW:     FloatParam(params, "xml-width", 0),
		ViewportH:     FloatParam(params, "xml-height", 0),
		ScreenshotW:   shotW,
		ScreenshotH:   shotH,
		ContainerW:    FloatParam(params, "container-width", shotW),
		ContainerH:    FloatParam(params, "container-height", shotH),
		Calibration:   cal,
		OverlayScale:  s.prefs.OverlayScale(),
		OverlayScaleX: s.prefs.OverlayScaleX(),
		OverlayScaleY: s.prefs.OverlayScaleY(),
		OffsetX:       s.prefs.OffsetX(),
		OffsetY:       s.prefs.OffsetY(),
		Align:         s.prefs.VerticalAlign(),
	})
}

func (s *mcpServer) handleTransformPoint(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.buildTransform(params)
	x, y := t.Point(FloatParam(params, "x", 0), FloatParam(params, "y", 0))
	_, source := s.coord.Current()

	return mcp.NewToolResultText(toYAML(map[string]interface{}{
		"x":           x,
		"y":           y,
		"source":      source.String(),
		"diagnostics": t.Diagnostics(),
	})), nil
}

func (s *mcpServer) handleTransformBounds(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	boundsStr := StringParam(params, "bounds", "")
	r, ok := hierarchy.ParseBounds(boundsStr)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("malformed bounds %q (expected '[x1,y1][x2,y2]')", boundsStr)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.buildTransform(params)
	rect := t.MapRect(float64(r.X1), float64(r.Y1), float64(r.X2), float64(r.Y2))
	_, source := s.coord.Current()

	return mcp.NewToolResultText(toYAML(map[string]interface{}{
		"rect":        rect,
		"source":      source.String(),
		"diagnostics": t.Diagnostics(),
	})), nil
}

func (s *mcpServer) handleProfileSave(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.coord.SaveCurrentAsProfile(StringParam(params, "note", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, source := s.coord.Current()
	return mcp.NewToolResultText(toYAML(map[string]interface{}{
		"source":      source.String(),
		"calibration": cal,
	})), nil
}

func (s *mcpServer) handleProfileList(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toYAML(profiles)), nil
}

func (s *mcpServer) handleProfileDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	device := StringParam(params, "device", "")
	pkg := StringParam(params, "package", "")
	if device == "" || pkg == "" {
		return mcp.NewToolResultError("device and package are required"), nil
	}
	if err := s.store.Delete(device, pkg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted profile for device %q package %q", device, pkg)), nil
}

func (s *mcpServer) handleProfileCleanup(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	removed, err := s.store.CleanupExpired(IntParam(params, "max-age-days", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %d expired profile(s)", removed)), nil
}
