package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/gowvp/replay/internal/conf"
)

// encryptCredentials 按前端的方式用签发的公钥加密凭据
func encryptCredentials(t *testing.T, keyB64, username, password string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		t.Fatal("bad pem block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub.(*rsa.PublicKey), body, nil)
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func TestLoginIssuesToken(t *testing.T) {
	bc := &conf.Bootstrap{}
	bc.Server.Username = "ops"
	bc.Server.Password = "pass123"
	bc.Server.HTTP.JwtSecret = "unit-test-secret"
	api := NewUserAPI(bc)

	keyB64, err := api.cipher.publicKeyPEM()
	if err != nil {
		t.Fatal(err)
	}

	out, err := api.login(nil, &loginInput{Data: encryptCredentials(t, keyB64, "ops", "pass123")})
	if err != nil {
		t.Fatal(err)
	}
	if out.Token == "" || out.User != "ops" {
		t.Fatalf("got %+v", out)
	}

	if _, err := api.login(nil, &loginInput{Data: encryptCredentials(t, keyB64, "ops", "wrong")}); err == nil {
		t.Fatal("wrong password must fail")
	}
}

func TestLoginDefaultCredentials(t *testing.T) {
	bc := &conf.Bootstrap{}
	bc.Server.HTTP.JwtSecret = "unit-test-secret"
	api := NewUserAPI(bc)

	keyB64, err := api.cipher.publicKeyPEM()
	if err != nil {
		t.Fatal(err)
	}

	out, err := api.login(nil, &loginInput{Data: encryptCredentials(t, keyB64, "admin", "admin")})
	if err != nil {
		t.Fatal(err)
	}
	if out.Token == "" {
		t.Fatal("empty token")
	}
}

func TestLoginWithoutIssuedKey(t *testing.T) {
	api := NewUserAPI(&conf.Bootstrap{})
	if _, err := api.login(nil, &loginInput{Data: "aGVsbG8="}); err == nil {
		t.Fatal("login before key issue must fail")
	}
}
