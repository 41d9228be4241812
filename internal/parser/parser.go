// Package parser implements Tulpar's recursive-descent parser with
// precedence climbing (spec §4.2), producing the tagged AST in
// internal/ast. Parse errors never abort the pass: each one is
// reported to an errors.Sink and the parser resynchronizes at the next
// statement boundary, so downstream phases can still run best-effort
// over a partial Program (spec §7).
package parser

import (
	"strconv"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/errors"
	"github.com/tulpar-lang/tulpar/internal/lexer"
)

// parseError is used internally to unwind out of a broken statement and
// resynchronize; it is always recovered within Parse/block parsing and
// never escapes to the caller.
type parseError struct{ err *errors.TulparError }

type Parser struct {
	tokens []lexer.Token
	cur    int
	file   string
	Sink   *errors.Sink
}

func New(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file, Sink: &errors.Sink{}}
}

// Parse consumes the token stream and returns a (possibly partial)
// Program; diagnostics are left in p.Sink.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.isAtEnd() {
		stmt := p.parseTopLevelRecovered()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	return prog
}

func (p *Parser) parseTopLevelRecovered() (stmt ast.Node) {
	startTok := p.cur
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			p.Sink.Report(pe.err)
			stmt = nil
			// Resynchronize: always make progress so a broken token
			// never wedges the pass, then skip to the next statement
			// boundary.
			if p.cur == startTok {
				p.advance()
			}
			p.synchronize()
		}
	}()
	return p.statement()
}

// synchronize advances past tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous().Kind == lexer.Semicolon || p.previous().Kind == lexer.RBrace {
			return
		}
		switch p.peek().Kind {
		case lexer.Func, lexer.If, lexer.While, lexer.For, lexer.Return,
			lexer.Break, lexer.Continue, lexer.Import, lexer.Try, lexer.Throw:
			return
		}
		if lexer.IsTypeName(p.peek().Kind) {
			return
		}
		p.advance()
	}
}

func (p *Parser) fail(msg string) {
	tok := p.peek()
	panic(parseError{errors.NewSyntaxError(msg, p.file, tok.Line, tok.Column)})
}

// ---- statements ----

func (p *Parser) statement() ast.Node {
	tok := p.peek()

	switch {
	case tok.Kind == lexer.Func:
		return p.funcDecl()
	case tok.Kind == lexer.Import:
		return p.importStmt()
	case tok.Kind == lexer.If:
		return p.ifStmt()
	case tok.Kind == lexer.While:
		return p.whileStmt()
	case tok.Kind == lexer.For:
		return p.forStmt()
	case tok.Kind == lexer.Return:
		return p.returnStmt()
	case tok.Kind == lexer.Break:
		p.advance()
		p.consume(lexer.Semicolon, "expect ';' after break")
		return &ast.Break{Line: tok.Line}
	case tok.Kind == lexer.Continue:
		p.advance()
		p.consume(lexer.Semicolon, "expect ';' after continue")
		return &ast.Continue{Line: tok.Line}
	case tok.Kind == lexer.Try:
		return p.tryStmt()
	case tok.Kind == lexer.Throw:
		return p.throwStmt()
	case lexer.IsTypeName(tok.Kind):
		return p.varDecl()
	case tok.Kind == lexer.LBrace:
		return p.block()
	case tok.Kind == lexer.Ident:
		return p.assignmentFamilyOrExprStmt()
	}

	p.fail("unexpected token '" + tok.Lexeme + "' at start of statement")
	return nil
}

func (p *Parser) varDecl() ast.Node {
	typeTok := p.advance()
	nameTok := p.consume(lexer.Ident, "expect variable name after type")
	var init ast.Node
	if p.match(lexer.Assign) {
		init = p.expression()
	}
	p.consume(lexer.Semicolon, "expect ';' after variable declaration")
	return &ast.VarDecl{DeclaredType: typeTok.Lexeme, Name: nameTok.Lexeme, Init: init, Line: typeTok.Line}
}

func (p *Parser) funcDecl() ast.Node {
	fnTok := p.advance()
	nameTok := p.consume(lexer.Ident, "expect function name")
	p.consume(lexer.LParen, "expect '(' after function name")
	var params []*ast.VarDecl
	if !p.check(lexer.RParen) {
		for {
			typeTok := p.advance()
			if !lexer.IsTypeName(typeTok.Kind) {
				p.fail("expect parameter type")
			}
			pname := p.consume(lexer.Ident, "expect parameter name")
			params = append(params, &ast.VarDecl{DeclaredType: typeTok.Lexeme, Name: pname.Lexeme, Line: pname.Line})
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RParen, "expect ')' after parameters")
	body := p.block()
	return &ast.FuncDecl{Name: nameTok.Lexeme, Params: params, Body: body, Line: fnTok.Line}
}

// importStmt parses `import path;` and the optional `as alias` suffix.
// The bare form is spec.md §3.2's Import(path); `as alias` has no
// original_source/ counterpart at all (the C parser has no import
// statement to begin with) and is carried over from the teacher's own
// Go rewrite (ImportStmt.Alias in sentra-language-sentra's
// internal/parser/stmt.go) — see SPEC_FULL.md §C.5.
func (p *Parser) importStmt() ast.Node {
	tok := p.advance()
	var path string
	if p.check(lexer.StringLit) {
		path = p.advance().Lexeme
	} else {
		path = p.consume(lexer.Ident, "expect import path").Lexeme
	}
	var alias string
	if p.check(lexer.Ident) && p.peek().Lexeme == "as" {
		p.advance()
		alias = p.consume(lexer.Ident, "expect alias name").Lexeme
	}
	p.consume(lexer.Semicolon, "expect ';' after import")
	return &ast.Import{Path: path, Alias: alias, Line: tok.Line}
}

func (p *Parser) ifStmt() ast.Node {
	tok := p.advance()
	p.consume(lexer.LParen, "expect '(' after if")
	cond := p.expression()
	p.consume(lexer.RParen, "expect ')' after if condition")
	then := p.block()
	var elseNode ast.Node
	if p.match(lexer.Else) {
		if p.check(lexer.If) {
			elseNode = p.ifStmt()
		} else {
			elseNode = p.block()
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: elseNode, Line: tok.Line}
}

func (p *Parser) whileStmt() ast.Node {
	tok := p.advance()
	p.consume(lexer.LParen, "expect '(' after while")
	cond := p.expression()
	p.consume(lexer.RParen, "expect ')' after while condition")
	body := p.block()
	return &ast.While{Cond: cond, Body: body, Line: tok.Line}
}

func (p *Parser) forStmt() ast.Node {
	tok := p.advance()
	p.consume(lexer.LParen, "expect '(' after for")

	// Two-token lookahead: `for ( ident in` is a for-in loop.
	if p.check(lexer.Ident) && p.checkNext(lexer.In) {
		name := p.advance().Lexeme
		p.advance() // 'in'
		iterable := p.expression()
		p.consume(lexer.RParen, "expect ')' after for-in clause")
		body := p.block()
		return &ast.ForIn{Name: name, Iterable: iterable, Body: body, Line: tok.Line}
	}

	var init ast.Node
	if !p.check(lexer.Semicolon) {
		init = p.forClause()
	}
	p.consume(lexer.Semicolon, "expect ';' after for initializer")

	var cond ast.Node
	if !p.check(lexer.Semicolon) {
		cond = p.expression()
	}
	p.consume(lexer.Semicolon, "expect ';' after for condition")

	var step ast.Node
	if !p.check(lexer.RParen) {
		step = p.forClause()
	}
	p.consume(lexer.RParen, "expect ')' after for clauses")

	body := p.block()
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body, Line: tok.Line}
}

// forClause parses the init/step slot of a C-style for loop: a var
// decl (without trailing ';') or an assignment-family form.
func (p *Parser) forClause() ast.Node {
	if lexer.IsTypeName(p.peek().Kind) {
		typeTok := p.advance()
		nameTok := p.consume(lexer.Ident, "expect variable name")
		var init ast.Node
		if p.match(lexer.Assign) {
			init = p.expression()
		}
		return &ast.VarDecl{DeclaredType: typeTok.Lexeme, Name: nameTok.Lexeme, Init: init, Line: typeTok.Line}
	}
	return p.assignmentFamily()
}

func (p *Parser) returnStmt() ast.Node {
	tok := p.advance()
	var val ast.Node
	if !p.check(lexer.Semicolon) {
		val = p.expression()
	}
	p.consume(lexer.Semicolon, "expect ';' after return")
	return &ast.Return{Value: val, Line: tok.Line}
}

func (p *Parser) tryStmt() ast.Node {
	tok := p.advance()
	tryBlock := p.block()
	var catchVar string
	var catchBlock *ast.Block
	var finallyBlock *ast.Block
	if p.match(lexer.Catch) {
		if p.match(lexer.LParen) {
			catchVar = p.consume(lexer.Ident, "expect catch variable").Lexeme
			p.consume(lexer.RParen, "expect ')' after catch variable")
		}
		catchBlock = p.block()
	}
	if p.match(lexer.Finally) {
		finallyBlock = p.block()
	}
	return &ast.TryCatch{Try: tryBlock, CatchVar: catchVar, Catch: catchBlock, Finally: finallyBlock, Line: tok.Line}
}

func (p *Parser) throwStmt() ast.Node {
	tok := p.advance()
	val := p.expression()
	p.consume(lexer.Semicolon, "expect ';' after throw")
	return &ast.Throw{Value: val, Line: tok.Line}
}

func (p *Parser) block() *ast.Block {
	tok := p.consume(lexer.LBrace, "expect '{' to start block")
	b := &ast.Block{Line: tok.Line}
	for !p.check(lexer.RBrace) && !p.isAtEnd() {
		stmt := p.parseTopLevelRecovered()
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
		if p.check(lexer.RBrace) {
			break
		}
	}
	p.consume(lexer.RBrace, "expect '}' after block")
	return b
}

// assignmentFamilyOrExprStmt disambiguates plain/compound
// assignment, increment/decrement, indexed assignment, and bare
// expression statements (spec §4.2 "Assignment family").
func (p *Parser) assignmentFamilyOrExprStmt() ast.Node {
	node := p.assignmentFamily()
	p.consume(lexer.Semicolon, "expect ';' after statement")
	return node
}

func (p *Parser) assignmentFamily() ast.Node {
	nameTok := p.advance() // Ident
	line := nameTok.Line

	switch p.peek().Kind {
	case lexer.Assign:
		p.advance()
		val := p.expression()
		return &ast.Assign{Target: &ast.Ident{Name: nameTok.Lexeme, Line: line}, Value: val, Line: line}
	case lexer.PlusEq, lexer.MinusEq, lexer.StarEq, lexer.SlashEq:
		opTok := p.advance()
		val := p.expression()
		return &ast.CompoundAssign{Name: nameTok.Lexeme, Op: opTok.Lexeme, Value: val, Line: line}
	case lexer.PlusPlus:
		p.advance()
		return &ast.Inc{Name: nameTok.Lexeme, Line: line}
	case lexer.MinusMinus:
		p.advance()
		return &ast.Dec{Name: nameTok.Lexeme, Line: line}
	case lexer.LBracket:
		target := p.indexChain(&ast.Ident{Name: nameTok.Lexeme, Line: line})
		if p.match(lexer.Assign) {
			val := p.expression()
			return &ast.Assign{Target: target, Value: val, Line: line}
		}
		return target
	case lexer.LParen:
		return p.finishCall(nameTok.Lexeme, line)
	}

	// Bare identifier used as an expression statement.
	return &ast.Ident{Name: nameTok.Lexeme, Line: line}
}

func (p *Parser) indexChain(target ast.Node) ast.Node {
	line := targetLine(target)
	for p.match(lexer.LBracket) {
		idx := p.expression()
		p.consume(lexer.RBracket, "expect ']' after index")
		target = &ast.IndexAccess{Target: target, Index: idx, Line: line}
	}
	return target
}

func targetLine(n ast.Node) int {
	switch v := n.(type) {
	case *ast.Ident:
		return v.Line
	case *ast.IndexAccess:
		return v.Line
	}
	return 0
}

func (p *Parser) finishCall(name string, line int) ast.Node {
	p.consume(lexer.LParen, "expect '(' to start call")
	var args []ast.Node
	if !p.check(lexer.RParen) {
		for {
			args = append(args, p.expression())
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RParen, "expect ')' after arguments")
	return &ast.Call{Name: name, Args: args, Line: line}
}

// ---- expressions (precedence climbing, low to high) ----

func (p *Parser) expression() ast.Node { return p.or() }

func (p *Parser) or() ast.Node {
	left := p.and()
	for p.check(lexer.OrOr) {
		tok := p.advance()
		right := p.and()
		left = &ast.BinOp{Op: tok.Lexeme, Left: left, Right: right, Line: tok.Line}
	}
	return left
}

func (p *Parser) and() ast.Node {
	left := p.comparison()
	for p.check(lexer.AndAnd) {
		tok := p.advance()
		right := p.comparison()
		left = &ast.BinOp{Op: tok.Lexeme, Left: left, Right: right, Line: tok.Line}
	}
	return left
}

func (p *Parser) comparison() ast.Node {
	left := p.additive()
	for p.checkAny(lexer.Eq, lexer.NotEq, lexer.Lt, lexer.Gt, lexer.LtEq, lexer.GtEq) {
		tok := p.advance()
		right := p.additive()
		left = &ast.BinOp{Op: tok.Lexeme, Left: left, Right: right, Line: tok.Line}
	}
	return left
}

func (p *Parser) additive() ast.Node {
	left := p.multiplicative()
	for p.checkAny(lexer.Plus, lexer.Minus) {
		tok := p.advance()
		right := p.multiplicative()
		left = &ast.BinOp{Op: tok.Lexeme, Left: left, Right: right, Line: tok.Line}
	}
	return left
}

func (p *Parser) multiplicative() ast.Node {
	left := p.unary()
	for p.checkAny(lexer.Star, lexer.Slash) {
		tok := p.advance()
		right := p.unary()
		left = &ast.BinOp{Op: tok.Lexeme, Left: left, Right: right, Line: tok.Line}
	}
	return left
}

func (p *Parser) unary() ast.Node {
	if p.checkAny(lexer.Bang, lexer.Minus) {
		tok := p.advance()
		operand := p.unary() // right-associative
		return &ast.UnaryOp{Op: tok.Lexeme, Operand: operand, Line: tok.Line}
	}
	return p.primary()
}

func (p *Parser) primary() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case lexer.IntLit:
		p.advance()
		n, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLit{Value: n, Line: tok.Line}
	case lexer.FloatLit:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLit{Value: f, Line: tok.Line}
	case lexer.StringLit:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme, Line: tok.Line}
	case lexer.True:
		p.advance()
		return &ast.BoolLit{Value: true, Line: tok.Line}
	case lexer.False:
		p.advance()
		return &ast.BoolLit{Value: false, Line: tok.Line}
	case lexer.LBracket:
		return p.arrayLit()
	case lexer.LBrace:
		return p.objectLit()
	case lexer.LParen:
		p.advance()
		e := p.expression()
		p.consume(lexer.RParen, "expect ')' after expression")
		return e
	case lexer.Ident:
		p.advance()
		if p.check(lexer.LParen) {
			return p.finishCall(tok.Lexeme, tok.Line)
		}
		if p.check(lexer.LBracket) {
			return p.indexChain(&ast.Ident{Name: tok.Lexeme, Line: tok.Line})
		}
		return &ast.Ident{Name: tok.Lexeme, Line: tok.Line}
	}
	p.fail("unexpected token '" + tok.Lexeme + "' in expression")
	return nil
}

func (p *Parser) arrayLit() ast.Node {
	tok := p.advance() // '['
	var elems []ast.Node
	if !p.check(lexer.RBracket) {
		for {
			elems = append(elems, p.expression())
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RBracket, "expect ']' after array elements")
	return &ast.ArrayLit{Elements: elems, Line: tok.Line}
}

func (p *Parser) objectLit() ast.Node {
	tok := p.advance() // '{'
	obj := &ast.ObjectLit{Line: tok.Line}
	if !p.check(lexer.RBrace) {
		for {
			keyTok := p.consume(lexer.StringLit, "expect string key in object literal")
			p.consume(lexer.Colon, "expect ':' after object key")
			val := p.expression()
			obj.Keys = append(obj.Keys, keyTok.Lexeme)
			obj.Values = append(obj.Values, val)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RBrace, "expect '}' after object literal")
	return obj
}

// ---- token cursor helpers ----

func (p *Parser) peek() lexer.Token  { return p.tokens[p.cur] }
func (p *Parser) previous() lexer.Token {
	if p.cur == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.cur-1]
}
func (p *Parser) isAtEnd() bool { return p.tokens[p.cur].Kind == lexer.EOF }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.cur++
	}
	return p.tokens[p.cur-1]
}

func (p *Parser) check(k lexer.Kind) bool {
	return !p.isAtEnd() && p.peek().Kind == k
}

func (p *Parser) checkNext(k lexer.Kind) bool {
	if p.cur+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.cur+1].Kind == k
}

func (p *Parser) checkAny(ks ...lexer.Kind) bool {
	for _, k := range ks {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) match(k lexer.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(k lexer.Kind, msg string) lexer.Token {
	if p.check(k) {
		return p.advance()
	}
	p.fail(msg)
	return lexer.Token{}
}
