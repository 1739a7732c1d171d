package handlers

import (
	"strconv"

	"github.com/anu-082006/Knee-Braced/internal/models"

	"github.com/gin-gonic/gin"
)

// UserContextKey is where the user-loader middleware stores the logged-in user.
const UserContextKey = "user"

// CurrentUser returns the logged-in user. Handlers behind AuthRequired may
// assume it is present.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(UserContextKey)
	u, _ := user.(*models.User)
	return u
}

// PatientID renders a user's numeric ID as the string identifier used in
// document collections.
func PatientID(u *models.User) string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// CanViewPatient reports whether the user may read the given patient's data:
// therapists see every patient, patients only themselves.
func CanViewPatient(u *models.User, patientID string) bool {
	return u.IsTherapist() || PatientID(u) == patientID
}
