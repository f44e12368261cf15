package identity_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		mux     *http.ServeMux
		client  *identity.Client
		ctx     context.Context
		testLog *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		testLog = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = identity.NewClient(identity.Config{BaseURL: server.URL + "/", Timeout: time.Second}, testLog)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("ValidateToken", func() {
		It("returns the principal for a valid token", func() {
			mux.HandleFunc("/auth/validate", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.ParseForm()).To(Succeed())
				Expect(r.PostForm.Get("token")).To(Equal("abc"))
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"valid": true,
					"email": "ada@example.com",
					"role":  "HR",
					"roles": []string{"HR", "HEAD", "bogus"},
				})
			})

			p, err := client.ValidateToken(ctx, "abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Email).To(Equal("ada@example.com"))
			Expect(p.Role).To(Equal(user.RoleHR))
			Expect(p.Roles).To(Equal([]user.Role{user.RoleHR, user.RoleHead}))
		})

		It("derives the primary role when none is reported", func() {
			mux.HandleFunc("/auth/validate", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"valid": true, "email": "b@example.com", "roles": []string{"EMPLOYEE", "HEAD"},
				})
			})

			p, err := client.ValidateToken(ctx, "abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Role).To(Equal(user.RoleHead))
		})

		It("maps 401 to an invalid token", func() {
			mux.HandleFunc("/auth/validate", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"valid":false}`))
			})

			_, err := client.ValidateToken(ctx, "abc")
			Expect(err).To(MatchError(identity.ErrInvalidToken))
		})
	})

	Describe("Provision", func() {
		It("sends the request and decodes the result", func() {
			mux.HandleFunc("/auth/provision", func(w http.ResponseWriter, r *http.Request) {
				var body identity.ProvisionRequest
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body.Email).To(Equal("new@example.com"))
				Expect(body.Roles).To(Equal([]string{"EMPLOYEE"}))
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"email":"new@example.com","password":"s3cretpass","created":true}`))
			})

			res, err := client.Provision(ctx, identity.ProvisionRequest{Email: "new@example.com", Roles: []string{"EMPLOYEE"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Created).To(BeTrue())
			Expect(res.Password).To(HaveValue(Equal("s3cretpass")))
		})

		It("fails on a server error", func() {
			mux.HandleFunc("/auth/provision", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})

			_, err := client.Provision(ctx, identity.ProvisionRequest{Email: "new@example.com"})
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})

	Describe("UpdateUser", func() {
		It("maps 404 to ErrUserNotFound", func() {
			mux.HandleFunc("/auth/update-user", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})

			err := client.UpdateUser(ctx, identity.UpdateUserRequest{Email: "ghost@example.com"})
			Expect(err).To(MatchError(identity.ErrUserNotFound))
		})

		It("omits untouched fields", func() {
			mux.HandleFunc("/auth/update-user", func(w http.ResponseWriter, r *http.Request) {
				var raw map[string]interface{}
				Expect(json.NewDecoder(r.Body).Decode(&raw)).To(Succeed())
				Expect(raw).To(HaveKeyWithValue("email", "a@example.com"))
				Expect(raw).NotTo(HaveKey("newEmail"))
				w.WriteHeader(http.StatusOK)
			})

			Expect(client.UpdateUser(ctx, identity.UpdateUserRequest{
				Email: "a@example.com",
				Roles: []string{"HEAD"},
			})).To(Succeed())
		})
	})
})
