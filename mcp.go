package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
)

// MCPTools exposes the annotation store and exporter as MCP tools so an agent
// can document a session without the browser UI.
type MCPTools struct {
	store    models.Store
	executor *ExportExecutor
}

func NewMCPTools(s models.Store, executor *ExportExecutor) *MCPTools {
	return &MCPTools{store: s, executor: executor}
}

// NewMCPServer registers every tool on a new MCP server.
func (t *MCPTools) NewMCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer("docpad", version)

	s.AddTool(mcp.NewTool("ensure_version",
		mcp.WithDescription("Registers a version so it appears in exports even before anything is attached to it."),
		mcp.WithString("version", mcp.Required(), mcp.Description("Version identifier, e.g. 1.0")),
	), t.ensureVersionHandler)

	for _, kind := range []models.AnnotationKind{models.KindLink, models.KindText, models.KindCode, models.KindTerminal} {
		s.AddTool(mcp.NewTool(appendToolName(kind),
			mcp.WithDescription(fmt.Sprintf("Appends one entry to the %s section of a version.", kind.Title())),
			mcp.WithString("version", mcp.Required(), mcp.Description("Version identifier")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Content to append")),
		), t.appendHandler(kind))
	}

	s.AddTool(mcp.NewTool("set_interpreter_info",
		mcp.WithDescription("Records the interpreter version for a version, replacing any earlier value."),
		mcp.WithString("version", mcp.Required(), mcp.Description("Version identifier")),
		mcp.WithString("interpreter", mcp.Required(), mcp.Description("Interpreter version string, e.g. 3.11.4")),
	), t.setInterpreterHandler)

	s.AddTool(mcp.NewTool("append_image",
		mcp.WithDescription("Attaches a base64 encoded image to a version."),
		mcp.WithString("version", mcp.Required(), mcp.Description("Version identifier")),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name of the image")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64 encoded image bytes")),
	), t.appendImageHandler)

	s.AddTool(mcp.NewTool("append_file",
		mcp.WithDescription("Attaches a base64 encoded file to a version. Exports list it by name."),
		mcp.WithString("version", mcp.Required(), mcp.Description("Version identifier")),
		mcp.WithString("name", mcp.Description("File name")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64 encoded file bytes")),
	), t.appendFileHandler)

	s.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("Lists registered versions in creation order."),
	), t.listVersionsHandler)

	s.AddTool(mcp.NewTool("export",
		mcp.WithDescription("Exports the documentation. PDF output must be written to a file; markdown and html are returned inline when no output is given."),
		mcp.WithString("format", mcp.Description("pdf, markdown or html (default pdf)")),
		mcp.WithString("version", mcp.Description("Version identifier or all (default all)")),
		mcp.WithString("output", mcp.Description("Path to write the document to")),
	), t.exportHandler)

	return s
}

func appendToolName(kind models.AnnotationKind) string {
	switch kind {
	case models.KindLink:
		return "append_link"
	case models.KindTerminal:
		return "append_terminal_log"
	}
	return "append_" + string(kind)
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func (t *MCPTools) ensureVersionHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid args"), nil
	}
	version := stringArg(args, "version")
	if err := t.store.EnsureVersion(version); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Ensure version failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Version '%s' registered.", version)), nil
}

func (t *MCPTools) appendHandler(kind models.AnnotationKind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("Invalid args"), nil
		}
		version := stringArg(args, "version")
		value, ok := args["value"].(string)
		if !ok {
			return mcp.NewToolResultError("value is required"), nil
		}
		if err := appendAnnotation(t.store, version, kind, value); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Append failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added to %s of version '%s'.", kind.Title(), version)), nil
	}
}

func (t *MCPTools) setInterpreterHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid args"), nil
	}
	version := stringArg(args, "version")
	interpreter := stringArg(args, "interpreter")
	if err := t.store.SetInterpreterInfo(version, interpreter, time.Now()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Set interpreter failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Interpreter for version '%s' set to %s.", version, interpreter)), nil
}

func (t *MCPTools) appendImageHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid args"), nil
	}
	version := stringArg(args, "version")
	data, err := base64.StdEncoding.DecodeString(stringArg(args, "data"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid base64 data: %v", err)), nil
	}

	results := appendImages(t.store, version, []models.ImageUpload{{Name: stringArg(args, "name"), Data: data}})
	if results[0].Error != "" {
		return mcp.NewToolResultError(fmt.Sprintf("Image rejected: %s", results[0].Error)), nil
	}
	ref := results[0].Image
	return mcp.NewToolResultText(fmt.Sprintf("Image '%s' (%s, %dx%d) attached to version '%s'.",
		ref.Name, ref.Format, ref.Width, ref.Height, version)), nil
}

func (t *MCPTools) appendFileHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid args"), nil
	}
	version := stringArg(args, "version")
	data, err := base64.StdEncoding.DecodeString(stringArg(args, "data"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid base64 data: %v", err)), nil
	}

	results := appendFiles(t.store, version, []models.FileUpload{{Name: stringArg(args, "name"), Data: data}})
	if results[0].Error != "" {
		return mcp.NewToolResultError(fmt.Sprintf("File rejected: %s", results[0].Error)), nil
	}
	ref := results[0].File
	return mcp.NewToolResultText(fmt.Sprintf("File '%s' (%d bytes) attached to version '%s'.",
		ref.Name, ref.Size, version)), nil
}

func (t *MCPTools) listVersionsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := t.store.ListVersions()
	if err != nil {
		return mcp.NewToolResultError("Could not retrieve version list"), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("No versions recorded."), nil
	}

	var sb strings.Builder
	sb.WriteString("Versions:\n")
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("- %s\n", id))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *MCPTools) exportHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)

	format, err := models.ParseExportFormat(stringArg(args, "format"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output := stringArg(args, "output")
	if output == "" && format == models.ExportPDF {
		return mcp.NewToolResultError("PDF export requires an output path"), nil
	}

	artifact, err := t.executor.Execute(ctx, format, models.ParseSelector(stringArg(args, "version")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Export failed: %v", err)), nil
	}

	if output == "" {
		return mcp.NewToolResultText(string(artifact.Data)), nil
	}
	if err := store.AtomicWriteFile(output, artifact.Data, 0644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Write failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %d bytes to %s.", len(artifact.Data), output)), nil
}
