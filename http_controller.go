package auth

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts login, registration, profile and health
// routes. profileGuard protects the profile route.
func RegisterAuthRoutes[T any](app router.Router[T], profileGuard router.MiddlewareFunc, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("login.post")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	var guards []router.MiddlewareFunc
	if profileGuard != nil {
		guards = append(guards, profileGuard)
	}

	app.Get(controller.Routes.UserProfile, controller.UserProfileShow, guards...).
		SetName("user-profile.get")

	app.Get(controller.Routes.Health, controller.HealthShow).
		SetName("health.get")

	return controller
}

type AuthControllerRoutes struct {
	Login       string
	Register    string
	UserProfile string
	Health      string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       Authenticator
	Registrar    Registrar
	Routes       *AuthControllerRoutes
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerAuthenticator(a Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithControllerRegistrar(r Registrar) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Registrar = r
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(l)
		c.ErrorHandler = ErrorHandler(c.Logger)
		return c
	}
}

func WithControllerContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: ErrorHandler(defLogger{}),
		ContextKey:   DefaultContextKey,
		Routes: &AuthControllerRoutes{
			Login:       "/login",
			Register:    "/register",
			UserProfile: "/user-profile",
			Health:      "/health",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Registrar == nil {
		panic("Missing Registrar in auth controller...")
	}

	return c
}

// LoginRequest payload, pointers tell missing fields from empty ones
type LoginRequest struct {
	Username *string `json:"username" form:"username"`
	Password *string `json:"password" form:"password"`
}

// RegistrationRequest payload
type RegistrationRequest struct {
	Username        *string `json:"username" form:"username"`
	Password        *string `json:"password" form:"password"`
	PasswordConfirm *string `json:"password_confirm" form:"password_confirm"`
	Email           *string `json:"email" form:"email"`
	FirstName       *string `json:"first_name" form:"first_name"`
	LastName        *string `json:"last_name" form:"last_name"`
	TermsAccepted   bool    `json:"terms_accepted" form:"terms_accepted"`
}

// Message converts the payload, call after required fields are checked
func (r RegistrationRequest) Message() RegisterUserMessage {
	return RegisterUserMessage{
		Username:        deref(r.Username),
		Password:        deref(r.Password),
		PasswordConfirm: deref(r.PasswordConfirm),
		Email:           deref(r.Email),
		FirstName:       deref(r.FirstName),
		LastName:        deref(r.LastName),
		TermsAccepted:   r.TermsAccepted,
	}
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := requiredFields(
		field{"username", payload.Username},
		field{"password", payload.Password},
	); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "username", *payload.Username)
	}

	token, err := a.Auther.Login(ctx.Context(), *payload.Username, *payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"token": token,
	})
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := requiredFields(
		field{"username", payload.Username},
		field{"password", payload.Password},
		field{"password_confirm", payload.PasswordConfirm},
		field{"email", payload.Email},
		field{"first_name", payload.FirstName},
		field{"last_name", payload.LastName},
	); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	msg := payload.Message()

	if a.Debug {
		a.Logger.Debug("registration attempt", "username", msg.Username, "email", msg.Email)
	}

	profile, err := a.Registrar.Execute(ctx.Context(), msg)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(profile))
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"data": profile,
	})
}

// UserProfileShow echoes the identity stored by the bearer middleware
func (a *AuthController) UserProfileShow(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrInvalidToken)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"data": identity,
	})
}

func (a *AuthController) HealthShow(ctx router.Context) error {
	return ctx.JSON(http.StatusOK, router.ViewContext{
		"status": "ok",
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
