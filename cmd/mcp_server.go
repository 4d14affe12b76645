package cmd

import (
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/overlay-cli/internal/calib"
	"github.com/mj1618/overlay-cli/internal/prefs"
)

// mcpServer wraps the MCP server with one coordinator instance. All
// calibration state (current source, detection memo) is owned by this
// instance, so separate server processes never interfere.
type mcpServer struct {
	store *calib.ProfileStore
	prefs *prefs.Preferences
	coord *calib.Coordinator
	mu    sync.Mutex
	mcp   *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
}

// newMCPServer creates and configures an MCP server with all overlay-cli tools.
func newMCPServer() (*mcpServer, error) {
	store, err := newStore()
	if err != nil {
		return nil, err
	}
	p := loadPreferences()

	s := &mcpServer{
		store: store,
		prefs: p,
		coord: calib.NewCoordinator(store, p, log),
	}

	s.mcp = mcpserver.NewMCPServer(
		"overlay-cli",
		"1.0.0",
	)

	s.registerTools()
	return s, nil
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	// extract-viewport
	s.mcp.AddTool(
		mcp.NewTool("extract-viewport",
			mcp.WithDescription("Extract the declared viewport size from a UI-hierarchy dump. Prefers the root bounds, then the largest origin-anchored rectangle, then the largest rectangle anywhere."),
			mcp.WithString("hierarchy", mcp.Description("Raw hierarchy dump text"), mcp.Required()),
		),
		s.handleExtractViewport,
	)

	// set-target
	s.mcp.AddTool(
		mcp.NewTool("set-target",
			mcp.WithDescription("Point the session at a (device, package) pair. A stored calibration profile for the pair takes precedence over auto-detection until reset."),
			mcp.WithString("device", mcp.Description("Device ID"), mcp.Required()),
			mcp.WithString("package", mcp.Description("App package name ('*' for device-wide)"), mcp.Required()),
		),
		s.handleSetTarget,
	)

	// detect-calibration
	s.mcp.AddTool(
		mcp.NewTool("detect-calibration",
			mcp.WithDescription("Compare viewport and screenshot dimensions and report whether calibration is needed, the proposed correction, and a heuristic confidence. Repeated calls with unchanged dimensions reuse the previous verdict."),
			mcp.WithNumber("xml-width", mcp.Description("Viewport width declared by the hierarchy"), mcp.Required()),
			mcp.WithNumber("xml-height", mcp.Description("Viewport height declared by the hierarchy"), mcp.Required()),
			mcp.WithNumber("screenshot-width", mcp.Description("Screenshot pixel width"), mcp.Required()),
			mcp.WithNumber("screenshot-height", mcp.Description("Screenshot pixel height"), mcp.Required()),
			mcp.WithBoolean("observe", mcp.Description("Also feed the dimensions through the auto-calibration trigger (default: true)")),
		),
		s.handleDetect,
	)

	// apply-calibration
	s.mcp.AddTool(
		mcp.NewTool("apply-calibration",
			mcp.WithDescription("Promote the last detection result into the current calibration, independent of the automatic trigger"),
		),
		s.handleApply,
	)

	// current-calibration
	s.mcp.AddTool(
		mcp.NewTool("current-calibration",
			mcp.WithDescription("Report the calibration currently in effect and its source (none, auto-detected, device-profile)"),
		),
		s.handleCurrent,
	)

	// reset-calibration
	s.mcp.AddTool(
		mcp.NewTool("reset-calibration",
			mcp.WithDescription("Clear the current calibration and restore default preferences"),
		),
		s.handleReset,
	)

	// transform-point
	s.mcp.AddTool(
		mcp.NewTool("transform-point",
			mcp.WithDescription("Map a viewport point to overlay pixels through the calibration transform pipeline, using the session's current calibration"),
			mcp.WithNumber("x", mcp.Description("Viewport X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Viewport Y coordinate"), mcp.Required()),
			mcp.WithNumber("xml-width", mcp.Description("Viewport width"), mcp.Required()),
			mcp.WithNumber("xml-height", mcp.Description("Viewport height"), mcp.Required()),
			mcp.WithNumber("screenshot-width", mcp.Description("Screenshot pixel width"), mcp.Required()),
			mcp.WithNumber("screenshot-height", mcp.Description("Screenshot pixel height"), mcp.Required()),
			mcp.WithNumber("container-width", mcp.Description("Container width (default: screenshot width)")),
			mcp.WithNumber("container-height", mcp.Description("Container height (default: screenshot height)")),
		),
		s.handleTransformPoint,
	)

	// transform-bounds
	s.mcp.AddTool(
		mcp.NewTool("transform-bounds",
			mcp.WithDescription("Map a '[x1,y1][x2,y2]' viewport bounds string to an overlay rectangle"),
			mcp.WithString("bounds", mcp.Description("Bounds string from the hierarchy"), mcp.Required()),
			mcp.WithNumber("xml-width", mcp.Description("Viewport width"), mcp.Required()),
			mcp.WithNumber("xml-height", mcp.Description("Viewport height"), mcp.Required()),
			mcp.WithNumber("screenshot-width", mcp.Description("Screenshot pixel width"), mcp.Required()),
			mcp.WithNumber("screenshot-height", mcp.Description("Screenshot pixel height"), mcp.Required()),
			mcp.WithNumber("container-width", mcp.Description("Container width (default: screenshot width)")),
			mcp.WithNumber("container-height", mcp.Description("Container height (default: screenshot height)")),
		),
		s.handleTransformBounds,
	)

	// profile-save
	s.mcp.AddTool(
		mcp.NewTool("profile-save",
			mcp.WithDescription("Persist the session's current calibration as a profile for the current (device, package) target"),
			mcp.WithString("note", mcp.Description("Free-form note stored with the profile")),
		),
		s.handleProfileSave,
	)

	// profile-list
	s.mcp.AddTool(
		mcp.NewTool("profile-list",
			mcp.WithDescription("List stored calibration profiles, most recently used first"),
		),
		s.handleProfileList,
	)

	// profile-delete
	s.mcp.AddTool(
		mcp.NewTool("profile-delete",
			mcp.WithDescription("Delete the profile for a (device, package) pair"),
			mcp.WithString("device", mcp.Description("Device ID"), mcp.Required()),
			mcp.WithString("package", mcp.Description("App package name"), mcp.Required()),
		),
		s.handleProfileDelete,
	)

	// profile-cleanup
	s.mcp.AddTool(
		mcp.NewTool("profile-cleanup",
			mcp.WithDescription("Delete profiles unused for longer than the expiry window"),
			mcp.WithNumber("max-age-days", mcp.Description("Expiry window in days (default: 30)")),
		),
		s.handleProfileCleanup,
	)
}
