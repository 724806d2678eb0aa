package router

import (
	"mime"
	"net/http"

	"github.com/akeren/wiwi-waitlist/internal/log"
)

// GetLogger returns the request-scoped logger installed by the router middleware.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusOK, Data: data, Message: message}
}

func CreatedResult(data any, resourceName string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusCreated, Data: data, Message: resourceName + " created successfully"}
}

// NoContentResult is written with an empty body.
func NoContentResult() *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusNoContent}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusBadRequest, Data: payload, Message: message}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusNotFound, Message: message}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusTooManyRequests, Data: data, Message: "Too Many Requests"}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusInternalServerError, Message: message}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func AttachmentResult(filename, contentType string, body []byte) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Attachment: &Attachment{Filename: filename, ContentType: contentType, Body: body},
	}
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		switch {
		case result == nil:
			GetLogger(c).Error("Handler returned no result", "path", c.FullPath())
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result").ToJSON())
		case result.Attachment != nil:
			writeAttachment(c, result)
		case result.StatusCode == http.StatusNoContent:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(result.StatusCode, result.ToJSON())
		}
	}
}

func writeAttachment(c *RequestContext, result *ServiceResult) {
	contentType := result.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Attachment.Filename}))
	c.Header("Cache-Control", "no-store")
	c.Data(result.StatusCode, contentType, result.Attachment.Body)
}
