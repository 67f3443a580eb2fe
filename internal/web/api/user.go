package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/conf"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// 管理端单账号凭据，未配置时退回默认账号，可经 PUT /users 修改并落盘
const (
	defaultUsername = "admin"
	defaultPassword = "admin"

	loginKeyTTL   = time.Hour
	loginTokenTTL = 3 * 24 * time.Hour
)

// UserAPI 管理端登录与凭据维护
// 口令经浏览器端 RSA-OAEP 加密后提交，明文不过线
type UserAPI struct {
	conf   *conf.Bootstrap
	cipher *loginCipher
}

func NewUserAPI(conf *conf.Bootstrap) UserAPI {
	return UserAPI{conf: conf, cipher: &loginCipher{}}
}

func RegisterUser(r gin.IRouter, api UserAPI, mid ...gin.HandlerFunc) {
	r.GET("/login/key", web.WrapH(api.getLoginKey))
	r.POST("/login", web.WrapH(api.login))
	r.Group("/users", mid...).PUT("", web.WrapH(api.updateCredentials))
}

// loginCipher 登录口令的传输加密
// 私钥只存在内存并定期轮换，轮换后旧页面拿到的密文解密失败，刷新页面重试即可
type loginCipher struct {
	mu        sync.Mutex
	key       *rsa.PrivateKey
	rotatedAt time.Time
}

// publicKeyPEM 返回 base64 编码的 PEM 公钥，过期则先轮换
func (lc *loginCipher) publicKeyPEM() (string, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.key == nil || time.Since(lc.rotatedAt) > loginKeyTTL {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return "", err
		}
		lc.key = key
		lc.rotatedAt = time.Now()
	}
	der, err := x509.MarshalPKIXPublicKey(&lc.key.PublicKey)
	if err != nil {
		return "", err
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return base64.StdEncoding.EncodeToString(block), nil
}

// decryptCredentials 解出密文中的用户名与口令
func (lc *loginCipher) decryptCredentials(ciphertext string) (string, string, error) {
	lc.mu.Lock()
	key := lc.key
	lc.mu.Unlock()
	if key == nil {
		return "", "", fmt.Errorf("登录密钥尚未签发，请刷新页面后重试")
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", "", err
	}
	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, raw, nil)
	if err != nil {
		return "", "", err
	}
	var cred struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(plain, &cred); err != nil {
		return "", "", err
	}
	return cred.Username, cred.Password, nil
}

type loginInput struct {
	Data string `json:"data" binding:"required"` // RSA-OAEP 加密的凭据 JSON
}

type loginOutput struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// login 校验凭据并签发 JWT
func (api UserAPI) login(_ *gin.Context, in *loginInput) (*loginOutput, error) {
	username, password, err := api.cipher.decryptCredentials(in.Data)
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}

	wantUser, wantPass := api.credentials()
	if username != wantUser || password != wantPass {
		return nil, reason.ErrNameOrPasswd
	}

	claims := web.NewClaimsData().SetUsername(username)
	token, err := web.NewToken(claims, api.conf.Server.HTTP.JwtSecret,
		web.WithExpiresAt(time.Now().Add(loginTokenTTL)))
	if err != nil {
		return nil, reason.ErrServer.SetMsg("签发 token 失败: " + err.Error())
	}
	return &loginOutput{Token: token, User: username}, nil
}

// credentials 配置未设置凭据时退回默认账号
func (api UserAPI) credentials() (string, string) {
	u, p := api.conf.Server.Username, api.conf.Server.Password
	if u == "" && p == "" {
		return defaultUsername, defaultPassword
	}
	return u, p
}

type updateCredentialsInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// updateCredentials 更新凭据并写回配置文件，已签发的 token 到期前仍有效
func (api UserAPI) updateCredentials(_ *gin.Context, in *updateCredentialsInput) (gin.H, error) {
	api.conf.Server.Username = in.Username
	api.conf.Server.Password = in.Password

	if err := conf.WriteConfig(api.conf, api.conf.ConfigPath); err != nil {
		return nil, reason.ErrServer.SetMsg("保存配置失败: " + err.Error())
	}
	return gin.H{"msg": "凭据已更新"}, nil
}

func (api UserAPI) getLoginKey(_ *gin.Context, _ *struct{}) (gin.H, error) {
	key, err := api.cipher.publicKeyPEM()
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	return gin.H{"key": key}, nil
}
