package metrics

import (
	"sync"

	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	_ "github.com/pingcap/parser/test_driver"
)

type AstStmtType int

const (
	StmtTypeUnknown AstStmtType = iota
	StmtTypeSelect
	StmtTypeInsert
	StmtTypeUpdate
	StmtTypeDelete
	StmtTypeDDL
	StmtTypeBegin
	StmtTypeCommit
	StmtTypeRollback
	StmtTypeSet
	StmtTypeShow
	StmtTypeUse
)

const (
	StmtNameUnknown  = "unknown"
	StmtNameSelect   = "select"
	StmtNameInsert   = "insert"
	StmtNameUpdate   = "update"
	StmtNameDelete   = "delete"
	StmtNameDDL      = "ddl"
	StmtNameBegin    = "begin"
	StmtNameCommit   = "commit"
	StmtNameRollback = "rollback"
	StmtNameSet      = "set"
	StmtNameShow     = "show"
	StmtNameUse      = "use"
)

var stmtTypeNames = map[AstStmtType]string{
	StmtTypeUnknown:  StmtNameUnknown,
	StmtTypeSelect:   StmtNameSelect,
	StmtTypeInsert:   StmtNameInsert,
	StmtTypeUpdate:   StmtNameUpdate,
	StmtTypeDelete:   StmtNameDelete,
	StmtTypeDDL:      StmtNameDDL,
	StmtTypeBegin:    StmtNameBegin,
	StmtTypeCommit:   StmtNameCommit,
	StmtTypeRollback: StmtNameRollback,
	StmtTypeSet:      StmtNameSet,
	StmtTypeShow:     StmtNameShow,
	StmtTypeUse:      StmtNameUse,
}

// parser.Parser is not safe for concurrent use.
var parserPool = sync.Pool{
	New: func() interface{} {
		return parser.New()
	},
}

func (t AstStmtType) String() string {
	if name, ok := stmtTypeNames[t]; ok {
		return name
	}
	return StmtNameUnknown
}

func GetStmtType(stmt ast.StmtNode) AstStmtType {
	switch stmt.(type) {
	case *ast.SelectStmt:
		return StmtTypeSelect
	case *ast.InsertStmt:
		return StmtTypeInsert
	case *ast.UpdateStmt:
		return StmtTypeUpdate
	case *ast.DeleteStmt:
		return StmtTypeDelete
	case ast.DDLNode:
		return StmtTypeDDL
	case *ast.BeginStmt:
		return StmtTypeBegin
	case *ast.CommitStmt:
		return StmtTypeCommit
	case *ast.RollbackStmt:
		return StmtTypeRollback
	case *ast.SetStmt:
		return StmtTypeSet
	case *ast.ShowStmt:
		return StmtTypeShow
	case *ast.UseStmt:
		return StmtTypeUse
	default:
		return StmtTypeUnknown
	}
}

// ClassifySQL returns the metrics label of a single SQL statement. SQL the
// parser does not understand is labelled "unknown".
func ClassifySQL(sql string) string {
	p := parserPool.Get().(*parser.Parser)
	defer parserPool.Put(p)

	stmt, err := p.ParseOneStmt(sql, "", "")
	if err != nil {
		return StmtNameUnknown
	}
	return GetStmtType(stmt).String()
}
