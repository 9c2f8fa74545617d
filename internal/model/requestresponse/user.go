package requestresponse

// RegisterRequest : тело запроса на регистрацию
type RegisterRequest struct {
	Email    string `json:"email" example:"user1@example.com"`
	Username string `json:"username" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterResponse : ответ на успешную регистрацию
type RegisterResponse struct {
	Response struct {
		UserUUID     string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
		RefreshToken string `json:"refresh_token" example:"vcSi0369y1I62wOpxZFpgZ"`
	} `json:"response"`
}

// AvatarUploadResponse : presigned URL для загрузки аватара
type AvatarUploadResponse struct {
	Response struct {
		UploadURL string `json:"upload_url" example:"https://s3.example.com/avatars/..."`
		ImageURL  string `json:"image_url" example:"https://s3.example.com/avatars/..."`
	} `json:"response"`
}

// OtpRequest : запрос кода подтверждения email
type OtpRequest struct {
	Email string `json:"email" example:"user1@example.com"`
}

// OtpConfirmRequest : подтверждение кода
type OtpConfirmRequest struct {
	Email string `json:"email" example:"user1@example.com"`
	Code  string `json:"code" example:"493027"`
}
