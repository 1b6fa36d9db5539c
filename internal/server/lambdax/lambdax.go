// Package lambdax adapts API Gateway proxy events to the router.
package lambdax

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/router"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev router.Event) router.Response
}

// ToEvent converts a proxy request. Base64-encoded bodies are decoded.
func ToEvent(req events.APIGatewayProxyRequest) (router.Event, error) {
	body := req.Body
	if req.IsBase64Encoded && body != "" {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return router.Event{}, &validation.Error{
				Message: "body is not valid base64",
				Fields:  []validation.FieldError{{Path: "body", Reason: "is not valid base64"}},
			}
		}
		body = string(b)
	}

	path := req.Path
	if path == "" {
		path = req.Resource
	}

	return router.Event{
		Method:                req.HTTPMethod,
		Path:                  path,
		PathParameters:        req.PathParameters,
		QueryStringParameters: req.QueryStringParameters,
		Headers:               req.Headers,
		Body:                  body,
	}, nil
}

func FromResponse(resp router.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

// Handler returns the function passed to lambda.Start. Failures are always
// rendered as HTTP responses, so the returned error is nil.
func Handler(d Dispatcher, log logging.Logger) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log = log.With("module", "lambda")

	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ev, err := ToEvent(req)
		if err != nil {
			log.Warn(ctx, "undecodable request", "method", req.HTTPMethod, "path", req.Path, "request_id", req.RequestContext.RequestID)
			return FromResponse(router.ErrorResponse(err)), nil
		}
		return FromResponse(d.Dispatch(ctx, ev)), nil
	}
}
