package dynamo

import (
	"github.com/zlnvch/noteverse/models"
)

type dynamoUser struct {
	PK           string          `dynamodbav:"PK"`
	SK           string          `dynamodbav:"SK"`
	Id           string          `dynamodbav:"Id"`
	Name         string          `dynamodbav:"Name"`
	Email        string          `dynamodbav:"Email"`
	PasswordHash string          `dynamodbav:"PasswordHash"`
	Sessions     []dynamoSession `dynamodbav:"Sessions"`
	Created      int64           `dynamodbav:"Created"`
	Updated      int64           `dynamodbav:"Updated"`
}

type dynamoSession struct {
	Token     string `dynamodbav:"Token"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt"`
}

// dynamoEmail is the email-uniqueness marker. A conditional put on this
// item is what turns a duplicate signup into ErrEmailTaken.
type dynamoEmail struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	UserId string `dynamodbav:"UserId"`
}

type dynamoAvatar struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	Avatar []byte `dynamodbav:"Avatar"`
}

type dynamoNote struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	OwnerId string `dynamodbav:"OwnerId"`
	Title   string `dynamodbav:"Title"`
	Content string `dynamodbav:"Content"`
	Created int64  `dynamodbav:"Created"`
	Updated int64  `dynamodbav:"Updated"`
}

// Map domain User -> Dynamo
func userToDynamo(u models.User) dynamoUser {
	sessions := make([]dynamoSession, 0, len(u.Sessions))
	for _, s := range u.Sessions {
		sessions = append(sessions, dynamoSession{Token: s.Token, ExpiresAt: s.ExpiresAt})
	}

	return dynamoUser{
		PK:           "USER#" + u.Id,
		SK:           "PROFILE",
		Id:           u.Id,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Sessions:     sessions,
		Created:      u.Created,
		Updated:      u.Updated,
	}
}

// Map Dynamo -> domain User
func userFromDynamo(du dynamoUser) models.User {
	sessions := make([]models.Session, 0, len(du.Sessions))
	for _, s := range du.Sessions {
		sessions = append(sessions, models.Session{Token: s.Token, ExpiresAt: s.ExpiresAt})
	}

	return models.User{
		Id:           du.Id,
		Name:         du.Name,
		Email:        du.Email,
		PasswordHash: du.PasswordHash,
		Sessions:     sessions,
		Created:      du.Created,
		Updated:      du.Updated,
	}
}

// Map domain Note -> Dynamo
func noteToDynamo(n models.Note) dynamoNote {
	return dynamoNote{
		PK:      "NOTE#" + n.OwnerId,
		SK:      n.Id,
		OwnerId: n.OwnerId,
		Title:   n.Title,
		Content: n.Content,
		Created: n.Created,
		Updated: n.Updated,
	}
}

// Map Dynamo -> domain Note
func noteFromDynamo(dn dynamoNote) models.Note {
	return models.Note{
		Id:      dn.SK,
		OwnerId: dn.OwnerId,
		Title:   dn.Title,
		Content: dn.Content,
		Created: dn.Created,
		Updated: dn.Updated,
	}
}
