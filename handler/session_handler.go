package handler

import (
	"net/http"

	"notespace/dto"
	"notespace/model"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

func sessionLinks(c *gin.Context, state model.SessionState) map[string]dto.Link {
	base := utils.GetBaseURL(c)
	links := map[string]dto.Link{
		"self": {Href: base + "/session", Method: http.MethodGet},
	}
	if state == model.SessionAuthenticated {
		links["notes"] = dto.Link{Href: base + "/notes", Method: http.MethodGet}
		links["signout"] = dto.Link{Href: base + "/auth/signout", Method: http.MethodPost}
	} else {
		links["signin"] = dto.Link{Href: base + "/auth/signin", Method: http.MethodPost}
		links["signup"] = dto.Link{Href: base + "/auth/signup", Method: http.MethodPost}
	}
	return links
}

func sessionResponse(c *gin.Context, sessions *usecase.SessionManager) dto.SessionResponse {
	state := sessions.State()
	return dto.ToSessionResponse(state, sessions.Loading(), sessions.Connected(), sessions.Session(), sessionLinks(c, state))
}

// GetSessionHandler reports the session snapshot. It never blocks on the
// loading phase.
func GetSessionHandler(c *gin.Context, sessions *usecase.SessionManager) {
	utils.Success(c, sessionResponse(c, sessions))
}

func SignInHandler(c *gin.Context, sessions *usecase.SessionManager) {
	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.TrackAuthAttempt("failure", "validation")
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	if _, err := sessions.SignIn(c.Request.Context(), creds, c.GetHeader("User-Agent")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMessage(c, "Welcome back!", sessionResponse(c, sessions))
}

func SignUpHandler(c *gin.Context, sessions *usecase.SessionManager) {
	var in model.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.TrackAuthAttempt("failure", "validation")
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	result, err := sessions.SignUp(c.Request.Context(), in, c.GetHeader("User-Agent"))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	message := "Sign up successful!"
	if result.ConfirmationRequired {
		message = "Sign up successful! Please check your email to verify your account."
	}
	utils.Created(c, message, dto.SignUpResponse{
		User:                 *dto.ToUserResponse(result.User),
		ConfirmationRequired: result.ConfirmationRequired,
	})
}

func SignOutHandler(c *gin.Context, sessions *usecase.SessionManager) {
	if err := sessions.SignOut(c.Request.Context()); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMessage(c, "Signed out successfully", sessionResponse(c, sessions))
}

// ConfirmEmailHandler is the target of the email confirmation link.
func ConfirmEmailHandler(c *gin.Context, sessions *usecase.SessionManager) {
	tokenHash := c.Query("token_hash")
	verifyType := c.Query("type")

	if err := sessions.ConfirmEmail(c.Request.Context(), tokenHash, verifyType); err != nil {
		if model.Classify(err) == model.KindInvalid {
			utils.BadRequest(c, "Invalid confirmation link.")
			return
		}
		status := utils.StatusFor(err)
		c.JSON(status, &utils.Response{
			Status: status,
			Error:  "Failed to confirm email. Please try again or contact support.",
		})
		return
	}
	utils.SuccessMessage(c, "Email confirmed successfully!", sessionResponse(c, sessions))
}
