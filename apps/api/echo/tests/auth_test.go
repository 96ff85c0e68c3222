package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/vidyasetu/vidyasetu/apps/api/echo"
	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/auth"
)

func Test_authApi_login(t *testing.T) {
	setup(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")

	login := func(username, pwd string) []byte {
		return marshalObj(t, echoapi.LoginRequest{EmailOrID: username, Password: pwd})
	}
	invalid := marshalObj(t, httpErr{Error: "invalid credentials"})

	runHTTPTests(t, app, []httpTest{
		{
			name:     "empty body",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email_or_id": "this field is required", "password": "this field is required"}`),
		},
		{
			name:     "unknown field",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     []byte(`{"email_or_id": "ravi01", "password": "x", "remember_me": true}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     login(teacher.Email, "nope"),
			wantCode: http.StatusBadRequest,
			wantData: invalid,
		},
		{
			name:     "unknown account",
			method:   http.MethodPost,
			path:     "/api/auth/login",
			body:     login("ghost@coaching.test", staffPwd),
			wantCode: http.StatusBadRequest,
			wantData: invalid,
		},
	})

	t.Run("teacher by email", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", login(" ASHA@coaching.test ", staffPwd))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res auth.LoginResult
		unmarshalBody(t, rec, &res)
		assert.Equal(t, core.RoleTeacher, res.Role)
		assert.Equal(t, teacher.Name, res.Name)
		assert.Equal(t, teacher.CoachingID, res.CoachingID)

		id, err := container.Tokens.Parse(res.Token)
		require.NoError(t, err)
		assert.Equal(t, teacher.Identity(), id)
	})

	t.Run("student by login id", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", login(std.LoginID, studentPwd))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res auth.LoginResult
		unmarshalBody(t, rec, &res)
		assert.Equal(t, core.RoleStudent, res.Role)
		assert.Equal(t, std.CoachingID, res.CoachingID)
	})
}

func Test_authApi_loginRateLimit(t *testing.T) {
	setup(t)
	limited := *conf
	limited.Server.LoginRateLimit = 1
	server := echoapi.NewServer(&limited, core.NopLogger{}, container.Deps, nil)

	body := marshalObj(t, echoapi.LoginRequest{EmailOrID: "ravi01", Password: "guess"})

	req, rec := newRequest(http.MethodPost, "/api/auth/login", body)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newRequest(http.MethodPost, "/api/auth/login", body)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func Test_authApi_me(t *testing.T) {
	setup(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")
	gone := createStudent(t, teacher, "Gone Student", "gone01", "1000", "Morning")
	goneToken := getToken(t, gone.Identity())
	require.NoError(t, container.StudentSvc.Delete(context.Background(), teacher.Identity(), gone.ID))

	runHTTPTests(t, app, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/auth/me",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "invalid token",
			method:   http.MethodGet,
			path:     "/api/auth/me",
			token:    "lol.lol.lol",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errInvalidToken),
		},
		{
			name:     "deleted subject",
			method:   http.MethodGet,
			path:     "/api/auth/me",
			token:    goneToken,
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errUnauthed),
		},
	})

	t.Run("teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", getToken(t, teacher.Identity()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got map[string]interface{}
		unmarshalBody(t, rec, &got)
		assert.Equal(t, teacher.ID, got["id"])
		assert.Equal(t, "TEACHER", got["role"])
		assert.NotContains(t, got, "password_hash")
		coaching, _ := got["coaching"].(map[string]interface{})
		assert.Equal(t, "Asha Verma's Institution", coaching["name"])
	})

	t.Run("student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", getToken(t, std.Identity()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got map[string]interface{}
		unmarshalBody(t, rec, &got)
		assert.Equal(t, std.ID, got["id"])
		assert.Equal(t, "STUDENT", got["role"])
		assert.Equal(t, "ravi01", got["student_login_id"])
	})
}

func Test_authApi_updatePushToken(t *testing.T) {
	setup(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")

	for _, tc := range []struct {
		name  string
		id    core.Identity
		token string
	}{
		{name: "teacher", id: teacher.Identity(), token: "ExponentPushToken[teacher]"},
		{name: "student", id: std.Identity(), token: "ExponentPushToken[student]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body := marshalObj(t, echoapi.PushTokenRequest{PushToken: tc.token})
			req, rec := newAuthRequest(http.MethodPost, "/api/auth/update-push-token", getToken(t, tc.id), body)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}

	staff, err := container.UserSvc.PushTokens(context.Background(), core.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[teacher]"}, staff)

	students, err := container.StudentSvc.PushTokens(context.Background(), std.CoachingID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[student]"}, students)
}

func Test_authApi_passwordReset(t *testing.T) {
	setup(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	mailSvc.Reset()

	req, rec := newRequest(http.MethodPost, "/api/auth/send-otp", []byte(`{"email": "nobody@coaching.test"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, mailSvc.Sent())

	req, rec = newRequest(http.MethodPost, "/api/auth/send-otp", []byte(`{"email": "asha@coaching.test"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	match := regexp.MustCompile(`code is (\d{6})`).FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 2, sent[0].TextContent)
	otp := match[1]

	newPwd := "Zq7$wN4@hTe1"
	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	req, rec = newRequest(http.MethodPost, "/api/auth/reset-password", marshalObj(t, map[string]string{
		"email": teacher.Email, "otp": wrong, "new_password": newPwd,
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newRequest(http.MethodPost, "/api/auth/reset-password", marshalObj(t, map[string]string{
		"email": teacher.Email, "otp": otp, "new_password": newPwd,
	}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := container.Deps.Authenticator.Login(context.Background(), teacher.Email, newPwd)
	assert.NoError(t, err)
}
