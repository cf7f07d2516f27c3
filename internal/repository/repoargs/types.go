package repoargs

type RepositoryName string

const (
	MemberRepoName      RepositoryName = "member"
	TransactionRepoName RepositoryName = "transaction"
	OrderRepoName       RepositoryName = "order"
	MenuRepoName        RepositoryName = "menu"
	StoreRepoName       RepositoryName = "store"
	NoteRepoName        RepositoryName = "note"
	ReportRepoName      RepositoryName = "report"
)
