package services

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledgerly/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("hashes_the_password_and_lowercases_the_email", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		user, err := svc.CreateUser("Alice@Example.COM", "s3cret-pass", "Alice", "Doe")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("email = %q, want lowercased", user.Email)
		}
		if user.Password == "s3cret-pass" {
			t.Error("password stored in plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-pass")); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
		if !user.IsActive {
			t.Error("new users should start active")
		}
	})

	t.Run("duplicate_email_rejected", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		_, err := svc.CreateUser("dup@example.com", "pass1", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("dup@example.com", "pass2", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("email_and_password_required", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		if _, err := svc.CreateUser("", "pass", "", ""); err == nil {
			t.Error("expected an error for a missing email")
		}
		_, err := svc.CreateUser("someone@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("case_insensitive_lookup", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		created := testutil.CreateTestUserWithEmail(t, env.db, "bob@example.com")

		got, err := svc.GetUserByEmail("BOB@example.com")
		testutil.AssertNoError(t, err)
		if got.ID != created.ID {
			t.Errorf("got user %d, want %d", got.ID, created.ID)
		}
	})

	t.Run("unknown_email", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		_, err := svc.GetUserByEmail("nobody@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("deactivated_user_is_hidden", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		user := testutil.CreateTestUserWithEmail(t, env.db, "gone@example.com")
		if err := env.db.Model(user).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate fixture: %v", err)
		}

		_, err := svc.GetUserByEmail("gone@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		got, err := svc.GetUserByID(env.user.ID)
		testutil.AssertNoError(t, err)
		if got.Email != env.user.Email {
			t.Errorf("email = %q, want %q", got.Email, env.user.Email)
		}
	})

	t.Run("unknown_id", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		_, err := svc.GetUserByID(99999)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestVerifyPassword(t *testing.T) {
	env := newTxEnv(t)
	svc := NewUserService(env.db)

	// Fixture users are created with the password "password123".
	if !svc.VerifyPassword(env.user, "password123") {
		t.Error("correct password rejected")
	}
	if svc.VerifyPassword(env.user, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_resets_the_failure_counter", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		user := testutil.CreateTestUserWithEmail(t, env.db, "carol@example.com")
		if err := env.db.Model(user).Update("failed_login_attempts", 3).Error; err != nil {
			t.Fatalf("failed to seed failure counter: %v", err)
		}

		got, err := svc.AttemptLogin("carol@example.com", "password123")
		testutil.AssertNoError(t, err)

		if got.FailedLoginAttempts != 0 {
			t.Errorf("failure counter = %d, want 0", got.FailedLoginAttempts)
		}
		if got.LastLoginAt == nil {
			t.Error("expected last login timestamp to be set")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		testutil.CreateTestUserWithEmail(t, env.db, "dave@example.com")

		_, err := svc.AttemptLogin("dave@example.com", "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email_reports_invalid_credentials", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		// The same error as a wrong password, so responses do not reveal
		// which emails are registered.
		_, err := svc.AttemptLogin("ghost@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		testutil.CreateTestUserWithEmail(t, env.db, "eve@example.com")

		for i := 0; i < maxFailedLogins; i++ {
			_, err := svc.AttemptLogin("eve@example.com", "bad-guess")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the right password bounces while the lock holds.
		_, err := svc.AttemptLogin("eve@example.com", "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("expired_lock_allows_login", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)
		user := testutil.CreateTestUserWithEmail(t, env.db, "frank@example.com")

		past := time.Now().Add(-time.Minute)
		if err := env.db.Model(user).Update("locked_until", past).Error; err != nil {
			t.Fatalf("failed to seed expired lock: %v", err)
		}

		_, err := svc.AttemptLogin("frank@example.com", "password123")
		testutil.AssertNoError(t, err)
	})
}

func TestRefreshTokenHash(t *testing.T) {
	t.Run("store_and_read_back", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(env.user.ID, "hash-one"))

		got, err := svc.GetRefreshTokenHash(env.user.ID)
		testutil.AssertNoError(t, err)
		if got != "hash-one" {
			t.Errorf("hash = %q, want hash-one", got)
		}
	})

	t.Run("storing_empty_revokes", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(env.user.ID, "hash-one"))
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(env.user.ID, ""))

		got, err := svc.GetRefreshTokenHash(env.user.ID)
		testutil.AssertNoError(t, err)
		if got != "" {
			t.Errorf("hash = %q, want empty", got)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		env := newTxEnv(t)
		svc := NewUserService(env.db)

		_, err := svc.GetRefreshTokenHash(99999)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
