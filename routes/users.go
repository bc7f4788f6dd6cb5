package routes

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devevents/services"
	"devevents/utils"
)

// POST /signup
func (d *deps) signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	user, err := d.users.Signup(c.Request.Context(), req)
	if err != nil {
		d.fail(c, err, "Could not save user.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created successfully", "user": user})
}

// POST /login
func (d *deps) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	user, err := d.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}

	token, err := utils.GenerateToken(user.Email, user.ID, d.users.RoleFor(user.Email))
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": token, "user": user})
}

// BridgeKeyHeader carries the shared secret of the external sign-in layer.
const BridgeKeyHeader = "X-Bridge-Key"

// requireBridgeKey 只放行帶著正確共用密鑰的外部登入層
func requireBridgeKey(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(BridgeKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}
		c.Next()
	}
}

// POST /oauth/:provider
// The external sign-in layer has already verified the provider; it posts the
// profile and gets our JWT back.
func (d *deps) oauthSignIn(c *gin.Context) {
	var profile services.OAuthProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		badRequest(c)
		return
	}

	user, err := d.users.SignInOAuth(c.Request.Context(), c.Param("provider"), profile)
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}

	token, err := utils.GenerateToken(user.Email, user.ID, d.users.RoleFor(user.Email))
	if err != nil {
		d.fail(c, err, "Could not authenticate user.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": token, "user": user})
}

// GET /api/user/:id
func (d *deps) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	user, err := d.users.Get(c.Request.Context(), id)
	if err != nil {
		d.fail(c, err, "Could not fetch user. Try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User fetched successfully", "user": user})
}

// PATCH /api/user  body: {"dataType": "name"|"image", "value": "..."}
func (d *deps) updateUser(c *gin.Context) {
	var req struct {
		DataType string `json:"dataType" binding:"required"`
		Value    string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Could not parse request data."})
		return
	}

	user, err := d.users.UpdateProfile(c.Request.Context(), caller(c).Email, req.DataType, req.Value)
	if err != nil {
		status, msg, _ := d.describe(c, err, "Could not update profile. Try again later.")
		c.JSON(status, gin.H{"success": false, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated successfully", "data": user})
}
