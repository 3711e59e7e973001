package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/sirupsen/logrus"
)

// MessageAlreadyProcessed 幂等重放的响应消息
const MessageAlreadyProcessed = "already processed"

// Response 统一响应格式
// @Description 统一响应格式,包含状态码、消息和数据
type Response struct {
	Code    int         `json:"code" example:"0"`          // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message" example:"success"` // 响应消息
	Data    interface{} `json:"data"`                      // 响应数据
}

// ErrorResponse 错误响应格式
// @Description 错误响应格式,包含错误码、错误消息、错误详情和出错字段
type ErrorResponse struct {
	Code    int      `json:"code" example:"400"`                                  // 错误码
	Message string   `json:"message" example:"validation error"`                  // 错误消息
	Detail  string   `json:"detail,omitempty" example:"observaciones is required"` // 错误详情(可选)
	Fields  []string `json:"fields,omitempty"`                                    // 出错字段(可选)
}

// PaginatedResponse 分页响应
// @Description 分页响应格式,包含数据列表和分页信息
type PaginatedResponse struct {
	Code       int            `json:"code" example:"0"`
	Message    string         `json:"message" example:"success"`
	Data       interface{}    `json:"data"`       // 数据列表
	Pagination PaginationInfo `json:"pagination"` // 分页信息
}

// PaginationInfo 分页信息
// @Description 分页信息,包含当前页码、每页数量、总记录数和总页数
type PaginationInfo struct {
	Page      int   `json:"page" example:"1"`       // 当前页码
	PageSize  int   `json:"page_size" example:"20"` // 每页数量
	Total     int64 `json:"total" example:"100"`    // 总记录数
	TotalPage int   `json:"total_page" example:"5"` // 总页数
}

// NewPaginationInfo 计算分页信息
func NewPaginationInfo(page, pageSize int, total int64) PaginationInfo {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPage := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPage++
	}
	return PaginationInfo{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Processed 转换结果响应,重放时消息为 already processed
func Processed(c *gin.Context, alreadyProcessed bool, data interface{}) {
	message := "success"
	if alreadyProcessed {
		message = MessageAlreadyProcessed
	}
	c.JSON(http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// Paginated 分页响应
func Paginated(c *gin.Context, data interface{}, pagination PaginationInfo) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Code:       0,
		Message:    "success",
		Data:       data,
		Pagination: pagination,
	})
}

// statusOf 领域错误类别对应的 HTTP 状态码
func statusOf(kind apperror.Kind) (int, string) {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest, "validation error"
	case apperror.KindPermission:
		return http.StatusForbidden, "permission denied"
	case apperror.KindStateConflict:
		return http.StatusConflict, "state conflict"
	case apperror.KindNotFound:
		return http.StatusNotFound, "not found"
	case apperror.KindDuplicate:
		return http.StatusConflict, "duplicate"
	}
	return http.StatusInternalServerError, "internal server error"
}

// HandleError 将错误映射为 HTTP 响应
// 非领域错误只记录日志,不向调用方暴露细节
func HandleError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		GetLogger().WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		Error(c, http.StatusInternalServerError, "internal server error", "")
		return
	}

	status, message := statusOf(appErr.Kind)
	c.JSON(status, ErrorResponse{
		Code:    status,
		Message: message,
		Detail:  appErr.Message,
		Fields:  appErr.Fields,
	})
}

// BadRequest 请求体或参数绑定失败
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, "invalid request", err.Error())
}
