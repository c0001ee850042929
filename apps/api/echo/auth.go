package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	// sessionCookieName carries the signed JWT for browser clients; API
	// clients may send it in the Authorization header instead.
	sessionCookieName = "darasa_session"

	// viewModeCookieName records an admin's "viewing as student" preference.
	// It only widens read access; authorization always derives from claims.
	viewModeCookieName = "darasa_view_mode"

	tokenContextKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsAdmin   bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

type JWTAuth struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func NewJWTAuth(conf *core.Config) *JWTAuth {
	return &JWTAuth{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    conf.SecretKey,
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

func (a *JWTAuth) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.config)
}

// cookieToHeader copies the session cookie into the Authorization header when
// the header is absent, so browser clients pass the JWT middleware too.
func (a *JWTAuth) cookieToHeader() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Request().Header.Get(echo.HeaderAuthorization) == "" {
				if cookie, err := ctx.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
					ctx.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+cookie.Value)
				}
			}
			return next(ctx)
		}
	}
}

func (a *JWTAuth) GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:      usr.Name,
		Email:     usr.Email,
		Role:      usr.Role,
		IsStudent: usr.IsStudent(),
		IsAdmin:   usr.IsAdmin(),
	}
}

// authenticate checks the credentials and returns the user with fresh claims.
// All credential failures yield the same uniform error.
func (a *JWTAuth) authenticate(ctx context.Context, email, pwd string, svc *user.Service) (user.User, *Claims, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, nil, errAuthenticationFailed
		}
		return user.User{}, nil, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, nil, errAccountDeactivated
	}
	usr.LastLogin = time.Now().UTC()
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, nil, errors.Wrap(err, "setting lastLogin")
	}
	return usr, a.GetUserClaims(usr), nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *JWTAuth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func (a *JWTAuth) setSessionCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(a.conf.Server.JWTExpirationDelta),
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	clearViewModeCookie(ctx)
}

func setViewModeCookie(ctx echo.Context, mode string) {
	ctx.SetCookie(&http.Cookie{
		Name:     viewModeCookieName,
		Value:    mode,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func clearViewModeCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:   viewModeCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func viewingAsStudent(ctx echo.Context) bool {
	cookie, err := ctx.Cookie(viewModeCookieName)
	return err == nil && cookie.Value == user.RoleStudent
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
