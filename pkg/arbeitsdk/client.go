package arbeitsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 10 * time.Second

// SDKClient is a client for the Arbeit backend.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new backend client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Endpoints are the paths of one audience's authentication routes.
// Register is empty for audiences without self-registration.
type Endpoints struct {
	Login          string
	ChangePassword string
	Me             string
	Logout         string
	Register       string
}

var (
	// StaffEndpoints are the internal staff routes.
	StaffEndpoints = Endpoints{
		Login:          "/api/auth/login",
		ChangePassword: "/api/auth/change-password",
		Me:             "/api/auth/me",
		Logout:         "/api/auth/logout",
	}

	// CandidateEndpoints are the external candidate routes.
	CandidateEndpoints = Endpoints{
		Login:          "/api/candidate-portal/login",
		ChangePassword: "/api/candidate-portal/change-password",
		Me:             "/api/candidate-portal/me",
		Logout:         "/api/candidate-portal/logout",
		Register:       "/api/candidate-portal/register",
	}
)

// PortalClient calls one audience's endpoints.
type PortalClient struct {
	client    *SDKClient
	endpoints Endpoints
}

// Portal binds the client to an explicit set of endpoints.
func (c *SDKClient) Portal(ep Endpoints) *PortalClient {
	return &PortalClient{client: c, endpoints: ep}
}

// Staff returns the client for the staff endpoints.
func (c *SDKClient) Staff() *PortalClient { return c.Portal(StaffEndpoints) }

// Candidate returns the client for the candidate endpoints.
func (c *SDKClient) Candidate() *PortalClient { return c.Portal(CandidateEndpoints) }

// Endpoints returns the paths this client is bound to.
func (p *PortalClient) Endpoints() Endpoints { return p.endpoints }
