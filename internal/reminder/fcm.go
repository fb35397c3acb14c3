package reminder

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// FCMGateway sends through the FCM HTTP v1 API using a signed service
// account credential.
type FCMGateway struct {
	service   *fcm.Service
	projectID string
	logger    *zap.Logger
}

func NewFCMGateway(ctx context.Context, projectID, serviceAccountJSON string, logger *zap.Logger) (*FCMGateway, error) {
	service, err := fcm.NewService(ctx,
		option.WithCredentialsJSON([]byte(serviceAccountJSON)),
		option.WithScopes(messagingScope),
	)
	if err != nil {
		return nil, err
	}
	return &FCMGateway{service: service, projectID: projectID, logger: logger}, nil
}

func (g *FCMGateway) Send(ctx context.Context, token, title, body string, data map[string]string) (int, string, error) {
	request := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: token,
			Notification: &fcm.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Webpush: &fcm.WebpushConfig{
				FcmOptions: &fcm.WebpushFcmOptions{
					Link: "/caregiver",
				},
			},
		},
	}

	message, err := g.service.Projects.Messages.Send("projects/"+g.projectID, request).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			// Relay the upstream status and body verbatim.
			g.logger.Warn("FCM rejected message",
				zap.Int("status", apiErr.Code),
				zap.String("body", apiErr.Body),
			)
			return apiErr.Code, apiErr.Body, nil
		}
		return 0, "", err
	}

	return http.StatusOK, message.Name, nil
}
