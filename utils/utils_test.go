package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// bcrypt 正確密碼應通過；錯誤密碼應失敗
func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !CheckPasswordHash("p@ssw0rd", hashed) {
		t.Fatalf("should match")
	}
	if CheckPasswordHash("hahaha", hashed) {
		t.Fatalf("should not match")
	}
	if CheckPasswordHash("", "") {
		t.Fatalf("empty hash must never match")
	}
}

func TestJWTGenerateAndVerify(t *testing.T) {
	token, err := GenerateToken("a@b.com", 87, "user")
	if err != nil {
		t.Fatalf("gen token err: %v", err)
	}
	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if claims.UserID != 87 || claims.Email != "a@b.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

// token 被竄改 → 驗證失敗
func TestVerifyToken_Tampered_Fails(t *testing.T) {
	tok, err := GenerateToken("x@x.com", 99, "user")
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	if _, err := VerifyToken(tok + "x"); err == nil {
		t.Fatalf("expect verify to fail on tampered token")
	}
}

func TestVerifyToken_ExpiredOrOtherKey_Fails(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:  "x@x.com",
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString(key())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(signed); err == nil {
		t.Fatalf("expired token accepted")
	}

	tok, _ := GenerateToken("x@x.com", 1, "user")
	SetSecretKey("rotated")
	defer SetSecretKey("supersecret")
	if _, err := VerifyToken(tok); err == nil {
		t.Fatalf("token signed with the old key accepted")
	}
}

// 先植入 list / item / similar key，清完只剩無關的 key
func TestCacheInvalidator_Purge(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewCacheInvalidator(rdb)

	ctx := context.Background()
	for _, k := range []string{
		EventsListPrefix + "page1",
		EventsItemPrefix + "gophercon",
		EventsItemPrefix + "other",
		EventsSimilarPrefix + "gophercon",
		"quota:user:1:day",
	} {
		_ = rdb.Set(ctx, k, "x", 0).Err()
	}

	inv.PurgeEvent(ctx, "gophercon")

	got := mr.Keys()
	want := map[string]bool{EventsItemPrefix + "other": true, "quota:user:1:day": true}
	if len(got) != len(want) {
		t.Fatalf("keys left: %v", got)
	}
	for _, k := range got {
		if !want[k] {
			t.Fatalf("key %s should have been purged", k)
		}
	}
}
