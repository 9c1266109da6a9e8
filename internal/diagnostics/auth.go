package diagnostics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// User is a local diagnostics-API account, grounded on auth.go's storm
// struct. The PDM itself has no notion of users; this exists solely to
// gate the bench debugging surface (SPEC_FULL.md §4.L).
type User struct {
	ID       int    `storm:"increment"`
	Email    string `storm:"unique"`
	Name     string
	Password string
	Admin    bool
}

func (u *User) SetPassword(pass []byte) {
	hash, _ := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	u.Password = string(hash)
}

func (u *User) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), pass)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *loginPayload) Bind(r *http.Request) error { return nil }

type jwtPayload struct {
	SignedToken string `json:"token"`
}

type jwtContextKey struct{}

func newJWT(secret []byte, issuer, sub string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifespan)),
		Subject:   sub,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(secret)
}

const jwtLifespan = time.Hour

// loginHandler looks up a user by email, verifies the password and
// returns a signed JWT — the same flow as auth.go's Login, ported to
// golang-jwt/jwt/v5 (dgrijalva/jwt-go is unmaintained; DESIGN.md records
// the swap).
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	data := &loginPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var user User
	if err := s.db.One("Email", data.Email, &user); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			render.Render(w, r, ErrNotFound)
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	if err := user.VerifyPassword([]byte(data.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			render.Render(w, r, ErrPermissionDenied(errors.New("invalid password")))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	tokenString, err := newJWT(s.jwtSecret, s.jwtIssuer, user.Email)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, jwtPayload{tokenString})
}

// validateJWT gates a handler behind a bearer/query/cookie JWT, matching
// auth.go's ValidateJWT lookup order.
func (s *Server) validateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("jwt")
		if tokenStr == "" {
			bearer := r.Header.Get("Authorization")
			if len(bearer) > 7 && strings.EqualFold(bearer[0:6], "bearer") {
				tokenStr = bearer[7:]
			}
		}
		if tokenStr == "" {
			if cookie, err := r.Cookie("jwt"); err == nil {
				tokenStr = cookie.Value
			}
		}
		if tokenStr == "" {
			render.Render(w, r, ErrUnauthorized(errors.New("bearer token not provided")))
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				render.Render(w, r, ErrUnauthorized(errors.New("token has expired")))
				return
			}
			render.Render(w, r, ErrUnauthorized(errors.New("invalid token")))
			return
		}
		if !token.Valid {
			render.Render(w, r, ErrUnauthorized(errors.New("invalid token")))
			return
		}

		ctx := context.WithValue(r.Context(), jwtContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
