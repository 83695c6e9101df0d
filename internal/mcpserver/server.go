// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes framewright tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/framewright/tenon/internal/api"
	"github.com/framewright/tenon/internal/frameservice"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
	"github.com/framewright/tenon/internal/signature"
)

// Server wraps the MCP server with framewright tools.
type Server struct {
	mcp *server.MCPServer
	svc *frameservice.Service
}

// New creates a new MCP server with all framewright tools registered.
func New(svc *frameservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Framewright",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("detect_intersection",
		mcp.WithDescription("Classify how two timber member datum lines meet. "+
			"Members MUST follow the member JSON format described in the "+
			"get_joint_contract tool or the tenon://joint-contract resource."),
		mcp.WithString("a", mcp.Required(), mcp.Description("First member as a JSON object")),
		mcp.WithString("b", mcp.Required(), mcp.Description("Second member as a JSON object")),
		mcp.WithNumber("tolerance_mm", mcp.Description("Detection tolerance in millimetres (default 12.7)")),
	), s.detectIntersection)

	s.mcp.AddTool(mcp.NewTool("evaluate_joint",
		mcp.WithDescription("Evaluate a joint family at the intersection of two members: "+
			"derived parameters, cutting solids, pegs and validation findings."),
		mcp.WithString("joint_type", mcp.Required(), mcp.Description("Joint family ID (e.g. through_mortise_tenon)")),
		mcp.WithString("a", mcp.Required(), mcp.Description("Primary member as a JSON object")),
		mcp.WithString("b", mcp.Required(), mcp.Description("Secondary member as a JSON object")),
		mcp.WithNumber("tolerance_mm", mcp.Description("Detection tolerance in millimetres (default 12.7)")),
	), s.evaluateJoint)

	s.mcp.AddTool(mcp.NewTool("member_signature",
		mcp.WithDescription("Compute the fabrication-identity signature of a member with its joints. "+
			"Members with equal signatures are interchangeable on the shop floor."),
		mcp.WithString("member", mcp.Required(), mcp.Description("Member as a JSON object")),
		mcp.WithString("joints", mcp.Description("JSON array of joints owned by the member")),
	), s.memberSignature)

	s.mcp.AddTool(mcp.NewTool("list_joint_types",
		mcp.WithDescription("List all registered joint families with their role and angle constraints."),
	), s.listJointTypes)

	s.mcp.AddTool(mcp.NewTool("compatible_joint_types",
		mcp.WithDescription("List joint families compatible with a member-role pair at a given angle, "+
			"ranked most specific first."),
		mcp.WithString("primary", mcp.Required(), mcp.Description("Primary member role (e.g. Post)")),
		mcp.WithString("secondary", mcp.Required(), mcp.Description("Secondary member role (e.g. Beam)")),
		mcp.WithNumber("angle", mcp.Required(), mcp.Description("Folded intersection angle in degrees (0-90)")),
	), s.compatibleJointTypes)

	s.mcp.AddTool(mcp.NewTool("get_joint_contract",
		mcp.WithDescription("Returns the canonical member and joint JSON contract. "+
			"Call this before building detect or evaluate requests."),
	), s.getJointContract)

	// Resource: joint contract.
	s.mcp.AddResource(
		mcp.NewResource("tenon://joint-contract", "Joint Contract",
			mcp.WithResourceDescription("Canonical member JSON format and the joint definition contract."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readJointContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// memberArg decodes and validates a member argument passed as a JSON string.
func memberArg(req mcp.CallToolRequest, key string) (member.Datum, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return member.Datum{}, err
	}
	var dto api.MemberDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return member.Datum{}, fmt.Errorf("%s: invalid JSON: %w", key, err)
	}
	if err := dto.Validate(); err != nil {
		return member.Datum{}, fmt.Errorf("%s: %w", key, err)
	}
	return dto.Datum(), nil
}

func (s *Server) detectIntersection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := memberArg(req, "a")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := memberArg(req, "b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tol := req.GetFloat("tolerance_mm", 0)

	res := s.svc.Detect(ctx, a, b, tol)
	resp := api.DetectResponse{Result: res}
	if res.Type != intersect.None {
		if id, ok := s.svc.ProposeJointType(res.Type); ok {
			resp.ProposedJointType = id
		}
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) evaluateJoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jointType, err := req.RequireString("joint_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := memberArg(req, "a")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := memberArg(req, "b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tol := req.GetFloat("tolerance_mm", 0)

	res := s.svc.Detect(ctx, a, b, tol)
	if res.Type == intersect.None {
		out, _ := json.MarshalIndent(api.EvaluateResponse{Intersection: res}, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}

	ev, err := s.svc.EvaluateJoint(ctx, jointType, res, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(api.EvaluateResponse{
		Intersection:     res,
		Evaluation:       ev,
		FabricationReady: ev.FabricationReady(),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) memberSignature(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := memberArg(req, "member")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var joints []signature.Joint
	if raw := req.GetString("joints", ""); raw != "" {
		var dtos []api.JointDTO
		if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("joints: invalid JSON: %v", err)), nil
		}
		for i, j := range dtos {
			if err := j.Validate(); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("joint %d: %v", i, err)), nil
			}
			joints = append(joints, j.Domain())
		}
	}

	sig := s.svc.MemberSignature(ctx, m, joints)
	out, _ := json.MarshalIndent(sig, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listJointTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := api.JointTypesResponse{
		JointTypes: s.svc.JointTypes(ctx),
		Categories: s.svc.Categories(ctx),
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) compatibleJointTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	primary, err := req.RequireString("primary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	secondary, err := req.RequireString("secondary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	angle, err := req.RequireFloat("angle")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	defs := s.svc.Compatible(ctx, member.Role(primary), member.Role(secondary), angle)
	if defs == nil {
		defs = []frameservice.JointTypeInfo{}
	}
	out, _ := json.MarshalIndent(api.CompatibleResponse{JointTypes: defs}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getJointContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(JointContract), nil
}

func (s *Server) readJointContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tenon://joint-contract",
			MIMEType: "text/markdown",
			Text:     JointContract,
		},
	}, nil
}
