package speak

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	goerrors "github.com/goliatone/go-errors"
)

const (
	routeRegister      = "/api/auth/register"
	routeLogin         = "/api/auth/login"
	routeUpdateProfile = "/api/profile/update"
)

// messageResponse is the body the service returns for confirmations and
// errors alike.
type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HTTPAuthService talks to the Speak auth endpoints over HTTP. It
// implements the AuthService collaborator contract.
type HTTPAuthService struct {
	client *resty.Client
	logger Logger
}

var _ AuthService = (*HTTPAuthService)(nil)

// NewHTTPAuthService returns a client for the service at the configured
// base URL.
func NewHTTPAuthService(cfg Config) *HTTPAuthService {
	timeout := cfg.GetHTTPTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.GetAPIBaseURL()).
		SetTimeout(timeout)

	return &HTTPAuthService{
		client: client,
		logger: defLogger{},
	}
}

func (s *HTTPAuthService) WithLogger(logger Logger) *HTTPAuthService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register calls the registration endpoint and returns the server
// confirmation message.
func (s *HTTPAuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	result := &messageResponse{}
	failure := &messageResponse{}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(result).
		SetError(failure).
		Post(routeRegister)

	if err := s.remoteError(resp, err, failure); err != nil {
		return "", err
	}

	return result.Message, nil
}

// Login exchanges credentials for a session token.
func (s *HTTPAuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	result := &tokenResponse{}
	failure := &messageResponse{}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(result).
		SetError(failure).
		Post(routeLogin)

	if err := s.remoteError(resp, err, failure); err != nil {
		return "", err
	}

	return result.Token, nil
}

// UpdateProfile sends the changed profile as a multipart PUT with the
// session token as bearer credential. The image travels either as the
// profile_image_file part or the profile_image_url form field, never both.
func (s *HTTPAuthService) UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (string, error) {
	result := &tokenResponse{}
	failure := &messageResponse{}

	req := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(result).
		SetError(failure).
		SetMultipartFormData(map[string]string{
			"name":   in.Name,
			"isDeaf": strconv.FormatBool(in.IsDeaf),
		})

	if in.ImageFile != nil {
		req.SetMultipartField("profile_image_file", in.ImageFile.FileName, "application/octet-stream", in.ImageFile.Reader)
	} else {
		req.SetMultipartFormData(map[string]string{
			"profile_image_url": in.ImageURL,
		})
	}

	resp, err := req.Put(routeUpdateProfile)

	if err := s.remoteError(resp, err, failure); err != nil {
		return "", err
	}

	return result.Token, nil
}

// remoteError maps a resty response into the error taxonomy: transport
// failures wrap ErrRemoteUnavailable, rejected calls surface the server
// message verbatim.
func (s *HTTPAuthService) remoteError(resp *resty.Response, err error, failure *messageResponse) error {
	if err != nil {
		s.logger.Warn("remote call transport failure", "error", err)
		return goerrors.Wrap(ErrRemoteUnavailable, goerrors.CategoryOperation, err.Error())
	}

	if resp.IsError() {
		msg := failure.Message
		if msg == "" {
			msg = genericFailureMessage
		}
		return goerrors.New(msg, goerrors.CategoryAuth).
			WithMetadata(map[string]any{
				"status": resp.StatusCode(),
			})
	}

	return nil
}
