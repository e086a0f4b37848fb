package parser

import (
	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/token"
)

// ParseProgram parses the whole input. Errors are available through Errors.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = p.parseStatementList(token.EOF)
	return program
}

// parseStatementList parses statements until terminator is the current
// token. Statements must be separated by newlines or semicolons.
func (p *Parser) parseStatementList(terminator token.TokenType) []ast.Statement {
	var stmts []ast.Statement
	for {
		for isSeparator(p.curToken.Type) {
			p.nextToken()
		}
		if p.curTokenIs(terminator) || p.curTokenIs(token.EOF) {
			return stmts
		}

		errCount := len(p.errors)
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if len(p.errors) > errCount {
			p.skipToStatementBoundary()
		}

		// curToken is the last token of the statement
		switch {
		case isSeparator(p.peekToken.Type), p.peekTokenIs(token.EOF):
			p.nextToken()
		case p.peekTokenIs(terminator):
			p.nextToken()
			return stmts
		default:
			p.peekError(token.NEWLINE)
			p.skipToStatementBoundary()
			p.nextToken()
		}
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.DEF:
		return p.parseDefStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	stmt.Range = ast.TokenSpan(stmt.Token).Cover(stmt.Value.Span())
	return stmt
}

func (p *Parser) parseDefStatement() ast.Statement {
	stmt := &ast.DefStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	stmt.Parameters = params
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockExpression()
	if stmt.Body == nil {
		return nil
	}
	stmt.Range = ast.TokenSpan(stmt.Token).Cover(stmt.Body.Range)
	return stmt
}

// parseParameters parses "(a, b)" with curToken on '('.
func (p *Parser) parseParameters() ([]*ast.Identifier, bool) {
	var params []*ast.Identifier
	p.skipPeekNewlines()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
		p.skipPeekNewlines()
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.skipPeekNewlines()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

// parseBlockExpression parses "{ ... }" with curToken on '{' and leaves
// curToken on '}'.
func (p *Parser) parseBlockExpression() *ast.BlockExpression {
	block := &ast.BlockExpression{Token: p.curToken}
	p.nextToken()
	block.Statements = p.parseStatementList(token.RBRACE)
	if !p.curTokenIs(token.RBRACE) {
		p.peekError(token.RBRACE)
		return nil
	}
	block.Range = source.Span{Start: block.Token.Offset, End: p.curToken.End}
	return block
}
