package handlers

// AppHandlers holds every handler of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	VerificationHandler *VerificationHandler
	DocumentHandler     *DocumentHandler
	AdminHandler        *AdminHandler
	FileHandler         *FileHandler
}
