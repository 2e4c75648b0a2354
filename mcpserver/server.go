package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/usecase"
	"github.com/DevRickLin/feishu-daycare-bot/internal/service"
)

// DaycareMCPServer exposes the attendance actions of one user as MCP tools
type DaycareMCPServer struct {
	server     *mcp.Server
	presenceUC *usecase.PresenceUsecase
	renderer   *service.Renderer
	userID     string
}

// NewServer creates a new daycare MCP server acting for userID
func NewServer(presenceUC *usecase.PresenceUsecase, renderer *service.Renderer, userID string) *DaycareMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "daycare-tools",
		Version: "v1.0.0",
	}, nil)

	s := &DaycareMCPServer{
		server:     server,
		presenceUC: presenceUC,
		renderer:   renderer,
		userID:     userID,
	}
	s.registerTools()
	return s
}

func (s *DaycareMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "daycare_status",
		Description: "Show today's attendance of every child, with a token for each action currently available.",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "daycare_act",
		Description: "Run an action token returned by daycare_status (check in, check out, sick leave) and return the resulting status.",
	}, s.handleAct)
}

// StatusInput is empty - no input needed
type StatusInput struct{}

// ActionToken is one available action
type ActionToken struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Token  string `json:"token"`
}

// ChildStatus is the status of one child
type ChildStatus struct {
	Account  string        `json:"account"`
	ChildID  string        `json:"child_id"`
	Name     string        `json:"name"`
	State    string        `json:"state"`
	CheckIn  string        `json:"check_in,omitempty"`
	CheckOut string        `json:"check_out,omitempty"`
	Note     string        `json:"note,omitempty"`
	Summary  string        `json:"summary"`
	Actions  []ActionToken `json:"actions,omitempty"`
}

// StatusOutput contains every child's status
type StatusOutput struct {
	Children []ChildStatus `json:"children"`
	Error    string        `json:"error,omitempty"`
}

func (s *DaycareMCPServer) handleStatus(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	reports, err := s.presenceUC.ShowStatus(ctx, s.userID)
	if errors.Is(err, domain.ErrUnauthorized) {
		return nil, StatusOutput{Error: "user is not authorized"}, nil
	}

	out := StatusOutput{Children: make([]ChildStatus, 0, len(reports))}
	if err != nil {
		out.Error = err.Error()
	}
	for _, r := range reports {
		child := ChildStatus{
			Account:  string(r.Account),
			ChildID:  r.Child.ID,
			Name:     r.Child.Name,
			State:    r.Status.State.String(),
			CheckIn:  r.Status.CheckIn,
			CheckOut: r.Status.CheckOut,
			Note:     r.Status.Note,
			Summary:  s.renderer.StatusLine(r.Child, r.Status),
		}
		for _, b := range r.Buttons {
			if b.Action == domain.ActionDismiss {
				continue
			}
			child.Actions = append(child.Actions, ActionToken{
				Action: string(b.Action),
				Label:  s.renderer.ButtonLabel(b.Action),
				Token:  b.Token,
			})
		}
		out.Children = append(out.Children, child)
	}
	return nil, out, nil
}

// ActInput is the input for daycare_act tool
type ActInput struct {
	Token string `json:"token" jsonschema:"An action token from daycare_status"`
}

// ActOutput is the result of an action
type ActOutput struct {
	Outcome string `json:"outcome"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

var outcomeNames = map[domain.OutcomeKind]string{
	domain.OutcomeUnauthorized:  "unauthorized",
	domain.OutcomeUnknownChoice: "unknown_choice",
	domain.OutcomeDismissed:     "dismissed",
	domain.OutcomeIgnored:       "ignored",
	domain.OutcomeApplied:       "applied",
	domain.OutcomeFailed:        "failed",
}

func (s *DaycareMCPServer) handleAct(ctx context.Context, req *mcp.CallToolRequest, input ActInput) (*mcp.CallToolResult, ActOutput, error) {
	outcome := s.presenceUC.HandleAction(ctx, s.userID, input.Token)

	out := ActOutput{Outcome: outcomeNames[outcome.Kind]}
	if outcome.Err != nil {
		out.Error = outcome.Err.Error()
	}
	if outcome.Kind == domain.OutcomeApplied {
		out.Summary = s.renderer.StatusLine(outcome.Child, outcome.Status)
	}
	return nil, out, nil
}

// Run starts the MCP server with stdio transport
func (s *DaycareMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *DaycareMCPServer) GetServer() *mcp.Server {
	return s.server
}
