package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/profhack/profhack-backend/models"
)

const defaultTimeout = 30 * time.Second

// ErrReauthRequired is returned when the server rejects the stored token.
// The store is cleared before this is returned; the caller should log in
// again.
var ErrReauthRequired = errors.New("client: authentication required")

// APIError is a non-2xx response with a plain error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// ViolationsError is the structured 422 body returned when a roster breaks
// the team composition rules.
type ViolationsError struct {
	Message    string
	Violations []string
}

func (e *ViolationsError) Error() string {
	return fmt.Sprintf("%s: %d violation(s)", e.Message, len(e.Violations))
}

// DepartmentError is the structured 422 body returned when a single
// candidate's department makes them ineligible.
type DepartmentError struct {
	Message    string
	Department string
}

func (e *DepartmentError) Error() string {
	return fmt.Sprintf("%s (department %q)", e.Message, e.Department)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialStore
}

// Option adjusts the client at construction time.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func New(baseURL string, creds CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues a JSON request and decodes the response envelope into out.
// The bearer token is attached when one is stored. A 401 clears the store
// and returns ErrReauthRequired.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	token, err := c.creds.Token()
	if err != nil && !errors.Is(err, ErrNoToken) {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if clearErr := c.creds.Clear(); clearErr != nil {
			return fmt.Errorf("client: failed to clear stored token: %w", clearErr)
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrReauthRequired)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: failed to decode response body: %w", err)
	}
	return nil
}

// decodeError maps the server's error bodies onto typed errors. 422 bodies
// carry either a violations list or a department field; everything else is
// an {"error": ...} envelope.
func decodeError(status int, data []byte) error {
	var body struct {
		Error      string   `json:"error"`
		Message    string   `json:"message"`
		Violations []string `json:"violations"`
		Department string   `json:"department"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return &APIError{StatusCode: status, Message: http.StatusText(status)}
	}

	switch {
	case len(body.Violations) > 0:
		return &ViolationsError{Message: body.Message, Violations: body.Violations}
	case body.Department != "":
		return &DepartmentError{Message: body.Message, Department: body.Department}
	case body.Error != "":
		return &APIError{StatusCode: status, Message: body.Error}
	case body.Message != "":
		return &APIError{StatusCode: status, Message: body.Message}
	default:
		return &APIError{StatusCode: status, Message: http.StatusText(status)}
	}
}

type RegisterInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Department      string `json:"department"`
	Designation     string `json:"designation,omitempty"`
	Skills          string `json:"skills,omitempty"`
	YearsExperience int    `json:"years_experience,omitempty"`
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/register", input, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login exchanges credentials for a token, stores it, and returns the
// authenticated user.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	input := map[string]string{"email": email, "password": password}
	var out struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", input, &out); err != nil {
		return nil, err
	}
	if err := c.creds.SetToken(out.Token); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout drops the stored token. Purely local; tokens are stateless.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp/send", map[string]string{"email": email}, nil)
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp/resend", map[string]string{"email": email}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	input := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/auth/otp/verify", input, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	input := map[string]string{"token": token, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", input, nil)
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

type UpdateProfileInput struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Designation     *string `json:"designation,omitempty"`
	Skills          *string `json:"skills,omitempty"`
	YearsExperience *int    `json:"years_experience,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/user/profile", input, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) AvailableUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/available", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) Invitations(ctx context.Context) ([]*models.Invitation, error) {
	var out struct {
		Invitations []*models.Invitation `json:"invitations"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/invitations", nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, invitationID int) (*models.Invitation, error) {
	return c.resolveInvitation(ctx, invitationID, "accept")
}

func (c *Client) DeclineInvitation(ctx context.Context, invitationID int) (*models.Invitation, error) {
	return c.resolveInvitation(ctx, invitationID, "decline")
}

func (c *Client) resolveInvitation(ctx context.Context, invitationID int, action string) (*models.Invitation, error) {
	path := "/user/invitations/" + strconv.Itoa(invitationID) + "/" + action
	var out struct {
		Invitation *models.Invitation `json:"invitation"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Invitation, nil
}

func (c *Client) Notifications(ctx context.Context) ([]*models.Notification, error) {
	var out struct {
		Notifications []*models.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int) error {
	path := "/user/notifications/" + strconv.Itoa(notificationID) + "/read"
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) Teams(ctx context.Context) ([]*models.Team, error) {
	var out struct {
		Teams []*models.Team `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams", nil, &out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

func (c *Client) Team(ctx context.Context, teamID int) (*models.Team, error) {
	var out struct {
		Team *models.Team `json:"team"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams/"+strconv.Itoa(teamID), nil, &out); err != nil {
		return nil, err
	}
	return out.Team, nil
}

type CreateTeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private,omitempty"`
	Skills      string `json:"skills,omitempty"`
	MemberIDs   []int  `json:"member_ids,omitempty"`
}

func (c *Client) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	var out struct {
		Team *models.Team `json:"team"`
	}
	if err := c.do(ctx, http.MethodPost, "/teams", input, &out); err != nil {
		return nil, err
	}
	return out.Team, nil
}

func (c *Client) RequestJoin(ctx context.Context, teamID int) (*models.Invitation, error) {
	var out struct {
		Invitation *models.Invitation `json:"invitation"`
	}
	path := "/teams/" + strconv.Itoa(teamID) + "/join"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Invitation, nil
}

func (c *Client) InviteMember(ctx context.Context, teamID, userID int) (*models.Invitation, error) {
	var out struct {
		Invitation *models.Invitation `json:"invitation"`
	}
	path := "/teams/" + strconv.Itoa(teamID) + "/invite"
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return out.Invitation, nil
}

func (c *Client) AddMember(ctx context.Context, teamID, userID int) (*models.Team, error) {
	var out struct {
		Team *models.Team `json:"team"`
	}
	path := "/teams/" + strconv.Itoa(teamID) + "/members"
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return out.Team, nil
}

func (c *Client) RemoveMember(ctx context.Context, teamID, memberID int) error {
	path := "/teams/" + strconv.Itoa(teamID) + "/members/" + strconv.Itoa(memberID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) LeaveTeam(ctx context.Context, teamID int) error {
	return c.do(ctx, http.MethodDelete, "/teams/"+strconv.Itoa(teamID)+"/leave", nil, nil)
}

func (c *Client) DeleteTeam(ctx context.Context, teamID int) error {
	return c.do(ctx, http.MethodDelete, "/teams/"+strconv.Itoa(teamID), nil, nil)
}

// Candidate is an available user together with the server's eligibility
// verdict for a particular team.
type Candidate struct {
	User     models.User `json:"user"`
	Decision Decision    `json:"decision"`
}

// Decision mirrors the server's per-candidate eligibility verdict.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (c *Client) AvailableFaculty(ctx context.Context, teamID int) ([]Candidate, error) {
	var out struct {
		Candidates []Candidate `json:"candidates"`
	}
	path := "/teams/" + strconv.Itoa(teamID) + "/available-faculty"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var out struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams/leaderboard", nil, &out); err != nil {
		return nil, err
	}
	return out.Leaderboard, nil
}

type SubmitPPTInput struct {
	TeamID   int
	Track    string
	Brief    string
	FileName string
	File     io.Reader
}

// SubmitPPT uploads the team's idea deck as multipart form data.
func (c *Client) SubmitPPT(ctx context.Context, input SubmitPPTInput) (*models.Submission, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("team_id", strconv.Itoa(input.TeamID)); err != nil {
		return nil, fmt.Errorf("client: failed to write form field: %w", err)
	}
	if err := mw.WriteField("track", input.Track); err != nil {
		return nil, fmt.Errorf("client: failed to write form field: %w", err)
	}
	if err := mw.WriteField("brief", input.Brief); err != nil {
		return nil, fmt.Errorf("client: failed to write form field: %w", err)
	}

	part, err := mw.CreatePart(pdfPartHeader(input.FileName))
	if err != nil {
		return nil, fmt.Errorf("client: failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, input.File); err != nil {
		return nil, fmt.Errorf("client: failed to copy submission file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submissions/ppt", &buf)
	if err != nil {
		return nil, fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Submission *models.Submission `json:"submission"`
	}
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return out.Submission, nil
}

func pdfPartHeader(fileName string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "application/pdf")
	return h
}

func (c *Client) TeamSubmission(ctx context.Context, teamID int) (*models.Submission, error) {
	var out struct {
		Submission *models.Submission `json:"submission"`
	}
	if err := c.do(ctx, http.MethodGet, "/submissions/team/"+strconv.Itoa(teamID), nil, &out); err != nil {
		return nil, err
	}
	return out.Submission, nil
}
