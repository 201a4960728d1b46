package gallery

import (
	"sync"

	"clipshare/internal/domain"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-visible toast.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// NoticeBuffer collects notices so a request handler can return them with its response.
type NoticeBuffer struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *NoticeBuffer) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
}

func (b *NoticeBuffer) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

type discard struct{}

func (discard) Notify(Notice) {}

var (
	noticeLoadFailed = Notice{Level: LevelError, Title: "Erro", Message: "Não foi possível carregar as imagens."}
)

type relationCopy struct {
	signIn  string
	failure string
	added   *Notice
	removed *Notice
}

var relationMessages = map[domain.Relation]relationCopy{
	domain.RelationLiked: {
		signIn:  "Você precisa estar logado para curtir imagens.",
		failure: "Ocorreu um erro ao curtir a imagem.",
	},
	domain.RelationSaved: {
		signIn:  "Você precisa estar logado para salvar imagens.",
		failure: "Ocorreu um erro ao salvar a imagem.",
		added:   &Notice{Level: LevelSuccess, Title: "Imagem salva", Message: "A imagem foi adicionada à sua coleção."},
		removed: &Notice{Level: LevelSuccess, Title: "Imagem removida", Message: "A imagem foi removida da sua coleção."},
	},
	domain.RelationBookmarked: {
		signIn:  "Você precisa estar logado para adicionar marcadores.",
		failure: "Ocorreu um erro ao atualizar os marcadores.",
	},
	domain.RelationFavorited: {
		signIn:  "Você precisa estar logado para favoritar clipes.",
		failure: "Ocorreu um erro ao favoritar o clipe.",
	},
}

func signInNotice(rel domain.Relation) Notice {
	return Notice{Level: LevelInfo, Title: "Faça login", Message: relationMessages[rel].signIn}
}

func failureNotice(rel domain.Relation) Notice {
	return Notice{Level: LevelError, Title: "Erro", Message: relationMessages[rel].failure}
}

func settledNotice(rel domain.Relation, member bool) *Notice {
	if member {
		return relationMessages[rel].added
	}
	return relationMessages[rel].removed
}
