package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"devevents/models"
	"devevents/utils"
)

const (
	DefaultAvatar     = "https://res.cloudinary.com/dtclqsbbc/image/upload/v1761046526/user_wpnaon.png"
	MinPasswordLength = 6
	ImageCheckTimeout = 2 * time.Second

	ProfileName  = "name"
	ProfileImage = "image"
)

var nameRe = regexp.MustCompile(`^[A-Za-z\s]+$`)

// ImageChecker decides whether a URL points at an image.
type ImageChecker interface {
	CheckImage(ctx context.Context, rawURL string) error
}

// HTTPImageChecker asks the remote host with a HEAD request.
type HTTPImageChecker struct {
	Client  *http.Client
	Timeout time.Duration
}

func (h HTTPImageChecker) CheckImage(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Validation(ProfileImage, "Invalid image URL")
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = ImageCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return models.Validation(ProfileImage, "Invalid image URL")
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return models.Validation(ProfileImage, "Image URL request timed out.")
		}
		return models.Validation(ProfileImage, "Could not validate the image URL. Please check the link and try again.")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 || !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return models.Validation(ProfileImage, "Provided URL does not point to a valid image.")
	}
	return nil
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// OAuthProfile is what an identity provider tells us about a user.
type OAuthProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

type UserService struct {
	users  models.UserRepository
	images ImageChecker
	admins map[string]bool
}

func NewUserService(users models.UserRepository, images ImageChecker, adminEmails []string) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[models.CanonicalEmail(e)] = true
	}
	if images == nil {
		images = HTTPImageChecker{}
	}
	return &UserService{users: users, images: images, admins: admins}
}

func (s *UserService) RoleFor(email string) string {
	if s.admins[models.CanonicalEmail(email)] {
		return RoleAdmin
	}
	return RoleUser
}

func (s *UserService) Signup(ctx context.Context, req SignupRequest) (models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := models.CanonicalEmail(req.Email)
	if name == "" {
		return models.User{}, models.Validation("name", "Name is required")
	}
	if !models.ValidEmail(email) {
		return models.User{}, models.Validation("email", "Invalid email format")
	}
	if len(req.Password) < MinPasswordLength {
		return models.User{}, models.Validation("password", "Password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.User{}, models.Infrastructure("Could not save user.", err)
	}
	image := strings.TrimSpace(req.Image)
	if image == "" {
		image = DefaultAvatar
	}
	u := models.User{Name: name, Email: email, Image: image, Password: hashed}
	if err := s.users.Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Login checks credentials. Accounts created through an identity provider
// have no password and are told to use it.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.users.GetByEmail(ctx, models.CanonicalEmail(email))
	if err != nil {
		if models.KindOf(err) == models.KindNotFound {
			return models.User{}, models.Unauthorized("Invalid email or password")
		}
		return models.User{}, err
	}
	if !u.HasPassword() {
		return models.User{}, models.Unauthorized("You signed up with Google or Github. Please use that option to login.")
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		return models.User{}, models.Unauthorized("Invalid email or password")
	}
	return u, nil
}

// SignInOAuth finds or creates the account for a provider sign-in. An email
// already registered with a password is refused.
func (s *UserService) SignInOAuth(ctx context.Context, provider string, p OAuthProfile) (models.User, error) {
	switch provider {
	case "google", "github":
	default:
		return models.User{}, models.Validation("provider", "Unsupported provider %q", provider)
	}
	email := models.CanonicalEmail(p.Email)
	if !models.ValidEmail(email) {
		return models.User{}, models.Validation("email", "Invalid email format")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if u.HasPassword() {
			return models.User{}, models.Conflict("This email is already registered with a password. Please sign in with credentials instead.")
		}
		return u, nil
	}
	if models.KindOf(err) != models.KindNotFound {
		return models.User{}, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	image := strings.TrimSpace(p.Image)
	if image == "" {
		image = DefaultAvatar
	}
	u = models.User{Name: name, Email: email, Image: image}
	if err := s.users.Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	if id <= 0 {
		return models.User{}, models.Validation("id", "Invalid user id")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes one profile field, name or image, of the account
// with email.
func (s *UserService) UpdateProfile(ctx context.Context, email, field, value string) (models.User, error) {
	email = models.CanonicalEmail(email)
	value = strings.TrimSpace(value)
	switch field {
	case ProfileName:
		if value == "" {
			return models.User{}, models.Validation(ProfileName, "Name is required")
		}
		if !nameRe.MatchString(value) {
			return models.User{}, models.Validation(ProfileName, "Name can only contain letters and spaces")
		}
		return s.users.UpdateProfile(ctx, email, &value, nil)
	case ProfileImage:
		if value == "" {
			return models.User{}, models.Validation(ProfileImage, "Image URL is required")
		}
		if err := s.images.CheckImage(ctx, value); err != nil {
			return models.User{}, err
		}
		return s.users.UpdateProfile(ctx, email, nil, &value)
	default:
		return models.User{}, models.Validation("dataType", "Invalid data type")
	}
}
