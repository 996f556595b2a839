package connectors

import (
	"github.com/custodia-labs/sercha-intake/internal/connectors/dropbox"
	"github.com/custodia-labs/sercha-intake/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-intake/internal/connectors/github"
	"github.com/custodia-labs/sercha-intake/internal/connectors/google"
	"github.com/custodia-labs/sercha-intake/internal/connectors/google/drive"
	"github.com/custodia-labs/sercha-intake/internal/connectors/google/gmail"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var oauthHandlers = map[domain.ProviderType]OAuthHandler{
	domain.ProviderGoogle:  google.NewOAuthHandler(),
	domain.ProviderGitHub:  github.NewOAuthHandler(),
	domain.ProviderDropbox: dropbox.NewOAuthHandler(),
}

// RegisterBuiltin registers every connector shipped with intake.
func RegisterBuiltin(f driven.ConnectorFactory) {
	f.Register(FilesystemType(), buildFilesystem)
	f.Register(GmailType(), buildGmail)
	f.Register(GoogleDriveType(), buildDrive)
	f.Register(DropboxType(), buildDropbox)
	f.Register(GitHubType(), buildGitHub)
}

// FilesystemType describes the local directory connector.
func FilesystemType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:             domain.ConnectorFilesystem,
		Name:           "Local Filesystem",
		Description:    "Ingest files from a local directory, optionally watching for changes",
		ProviderType:   domain.ProviderLocal,
		AuthCapability: domain.AuthCapNone,
		ConfigKeys: []domain.ConfigKey{
			{Key: "path", Label: "Directory Path", Description: "Directory to walk", Required: true},
			{Key: "extensions", Label: "Extensions", Description: "Only ingest these extensions (e.g. pdf,png)"},
			{Key: "include_hidden", Label: "Include Hidden", Description: "Walk dot files and directories", Default: "false"},
			{Key: "max_file_size", Label: "Max File Size", Description: "Skip files larger than this many bytes"},
			{Key: "files_per_second", Label: "Read Rate", Description: "Throttle file reads (0 = unlimited)", Default: "0"},
		},
	}
}

// GmailType describes the Gmail attachment connector.
func GmailType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:             domain.ConnectorGmail,
		Name:           "Gmail",
		Description:    "Ingest attachments (and optionally messages) from a Gmail mailbox",
		ProviderType:   domain.ProviderGoogle,
		AuthCapability: domain.AuthCapOAuth,
		ConfigKeys: []domain.ConfigKey{
			{Key: "label_ids", Label: "Labels", Description: "Label IDs to sync (empty for all mail)", Default: "INBOX"},
			{Key: "query", Label: "Search Query", Description: "Additional Gmail search query"},
			{Key: "include_message", Label: "Include Message", Description: "Also ingest each message as .eml", Default: "false"},
			{Key: "include_spam_trash", Label: "Include Spam/Trash", Default: "false"},
			{Key: "page_size", Label: "Page Size", Description: "Messages per list request"},
			{Key: "max_attachment_size", Label: "Max Attachment Size", Description: "Skip larger attachments (bytes)"},
		},
	}
}

// GoogleDriveType describes the Google Drive connector.
func GoogleDriveType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:             domain.ConnectorGoogleDrive,
		Name:           "Google Drive",
		Description:    "Ingest files from Google Drive, exporting Docs, Sheets and Slides to PDF",
		ProviderType:   domain.ProviderGoogle,
		AuthCapability: domain.AuthCapOAuth,
		ConfigKeys: []domain.ConfigKey{
			{Key: "content_types", Label: "Content Types", Description: "files,docs,sheets,slides", Default: "files,docs"},
			{Key: "folder_ids", Label: "Folder IDs", Description: "Only sync these folders"},
			{Key: "mime_types", Label: "MIME Types", Description: "Only sync these MIME types"},
			{Key: "page_size", Label: "Page Size"},
			{Key: "max_file_size", Label: "Max File Size", Description: "Skip larger files (bytes)"},
		},
	}
}

// DropboxType describes the Dropbox connector.
func DropboxType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:             domain.ConnectorDropbox,
		Name:           "Dropbox",
		Description:    "Ingest files from a Dropbox folder",
		ProviderType:   domain.ProviderDropbox,
		AuthCapability: domain.AuthCapOAuth | domain.AuthCapPAT,
		ConfigKeys: []domain.ConfigKey{
			{Key: "path", Label: "Folder", Description: "Folder to sync (empty for the whole account)"},
			{Key: "recursive", Label: "Recursive", Default: "true"},
			{Key: "extensions", Label: "Extensions", Description: "Only ingest these extensions"},
			{Key: "max_file_size", Label: "Max File Size", Description: "Skip larger files (bytes)"},
		},
	}
}

// GitHubType describes the GitHub issues connector.
func GitHubType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:             domain.ConnectorGitHub,
		Name:           "GitHub",
		Description:    "Ingest issues from GitHub repositories as markdown documents",
		ProviderType:   domain.ProviderGitHub,
		AuthCapability: domain.AuthCapPAT | domain.AuthCapOAuth,
		ConfigKeys: []domain.ConfigKey{
			{Key: "repos", Label: "Repositories", Description: "owner/name list (empty for all accessible)"},
			{Key: "labels", Label: "Labels", Description: "Only issues carrying one of these labels"},
			{Key: "state", Label: "State", Description: "open, closed or all", Default: "all"},
		},
	}
}

func buildFilesystem(source domain.Source, _ driven.TokenProvider) (driven.Connector, error) {
	cfg, err := filesystem.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return filesystem.New(source.ID, cfg), nil
}

func buildGmail(source domain.Source, tp driven.TokenProvider) (driven.Connector, error) {
	cfg, err := gmail.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return gmail.New(source.ID, cfg, tp), nil
}

func buildDrive(source domain.Source, tp driven.TokenProvider) (driven.Connector, error) {
	cfg, err := drive.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return drive.New(source.ID, cfg, tp), nil
}

func buildDropbox(source domain.Source, tp driven.TokenProvider) (driven.Connector, error) {
	cfg, err := dropbox.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return dropbox.New(source.ID, cfg, tp), nil
}

func buildGitHub(source domain.Source, tp driven.TokenProvider) (driven.Connector, error) {
	cfg, err := github.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return github.New(source.ID, cfg, tp), nil
}
