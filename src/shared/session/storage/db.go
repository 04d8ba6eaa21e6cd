package sessionstorage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	dynamolib "github.com/veedubyou/stem-splitter/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-splitter/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-splitter/src/shared/session/entity"
)

const (
	SessionsTable = "Sessions"
	idKey         = "id"
)

var _ sessionentity.Store = DB{}

type dbStem struct {
	Name     string `dynamo:"name"`
	Filename string `dynamo:"filename"`
	URL      string `dynamo:"url"`
}

// timestamps are unix seconds so expires_at can serve as the table's TTL attribute
type dbSession struct {
	ID               string            `dynamo:"id,hash"`
	OriginalFilename string            `dynamo:"original_filename"`
	BaseName         string            `dynamo:"base_name"`
	Strategy         string            `dynamo:"strategy"`
	FallbackReason   string            `dynamo:"fallback_reason"`
	Stems            []dbStem          `dynamo:"stems"`
	ArchivedURLs     map[string]string `dynamo:"archived_urls"`
	CreatedAt        int64             `dynamo:"created_at"`
	ExpiresAt        int64             `dynamo:"expires_at"`
}

func (d dbSession) toEntity() sessionentity.Session {
	stems := make([]sessionentity.StemDescriptor, 0, len(d.Stems))
	for _, stem := range d.Stems {
		stems = append(stems, sessionentity.StemDescriptor{
			Name:     stem.Name,
			Filename: stem.Filename,
			URL:      stem.URL,
		})
	}

	return sessionentity.Session{
		ID:               d.ID,
		OriginalFilename: d.OriginalFilename,
		BaseName:         d.BaseName,
		Strategy:         d.Strategy,
		FallbackReason:   d.FallbackReason,
		Stems:            stems,
		ArchivedURLs:     d.ArchivedURLs,
		CreatedAt:        time.Unix(d.CreatedAt, 0).UTC(),
		ExpiresAt:        time.Unix(d.ExpiresAt, 0).UTC(),
	}
}

func toDBMap(session sessionentity.Session) map[string]any {
	stems := []any{}
	for _, stem := range session.Stems {
		stems = append(stems, map[string]any{
			"name":     stem.Name,
			"filename": stem.Filename,
			"url":      stem.URL,
		})
	}

	archivedURLs := map[string]any{}
	for name, url := range session.ArchivedURLs {
		archivedURLs[name] = url
	}

	return map[string]any{
		idKey:               session.ID,
		"original_filename": session.OriginalFilename,
		"base_name":         session.BaseName,
		"strategy":          session.Strategy,
		"fallback_reason":   session.FallbackReason,
		"stems":             stems,
		"archived_urls":     archivedURLs,
		"created_at":        session.CreatedAt.Unix(),
		"expires_at":        session.ExpiresAt.Unix(),
	}
}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, error) {
	if sessionID == "" {
		return sessionentity.Session{}, mark.Message(IDEmptyMark, "No session ID was provided")
	}

	value := dbSession{}
	err := d.dynamoDB.Table(SessionsTable).
		Get(idKey, sessionID).
		OneWithContext(ctx, &value)

	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return sessionentity.Session{}, mark.Wrap(err, SessionNotFoundMark, "Session is not found")
		}

		return sessionentity.Session{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch session")
	}

	return value.toEntity(), nil
}

func (d DB) SetSession(ctx context.Context, session sessionentity.Session) error {
	if session.ID == "" {
		return mark.Message(IDEmptyMark, "Session ID is not defined")
	}

	err := d.dynamoDB.Table(SessionsTable).
		Put(toDBMap(session)).
		RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to put the session in the DB")
	}

	return nil
}

func (d DB) UpdateSession(ctx context.Context, sessionID string, updater sessionentity.SessionUpdater) error {
	session, err := d.GetSession(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "Can't find the session to update")
	}

	updated, err := updater(session)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the session")
	}

	updated.ID = session.ID

	err = d.dynamoDB.Table(SessionsTable).
		Put(toDBMap(updated)).
		If("attribute_exists(id)").
		RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) || isConditionalCheckErr(err) {
			return mark.Wrap(err, SessionNotFoundMark, "Session was removed during the update")
		}

		return mark.Wrap(err, DefaultErrorMark, "Failed to write the updated session")
	}

	return nil
}

func (d DB) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return mark.Message(IDEmptyMark, "No session ID was provided")
	}

	err := d.dynamoDB.Table(SessionsTable).
		Delete(idKey, sessionID).
		RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to delete the session")
	}

	return nil
}

func isConditionalCheckErr(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}

	return awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
