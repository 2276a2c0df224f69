package render

// Inline SVG markers drawn onto board cells and cards.
var iconAssets = map[string]string{
	"snake": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <path d="M14 50 C6 42 10 30 22 30 C34 30 36 20 28 16 C22 13 20 8 26 6 C36 3 48 10 46 22 C44 32 34 36 26 38 C18 40 18 46 24 48 C30 50 38 48 42 44"
        fill="none" stroke="#2e8b57" stroke-width="6" stroke-linecap="round"/>
  <circle cx="44" cy="44" r="5" fill="#2e8b57"/>
  <circle cx="46" cy="43" r="1.4" fill="#ffffff"/>
</svg>`,
	"ladder": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <line x1="20" y1="58" x2="34" y2="6" stroke="#b8860b" stroke-width="5" stroke-linecap="round"/>
  <line x1="40" y1="58" x2="54" y2="6" stroke="#b8860b" stroke-width="5" stroke-linecap="round"/>
  <line x1="24" y1="46" x2="44" y2="46" stroke="#b8860b" stroke-width="4"/>
  <line x1="27" y1="34" x2="47" y2="34" stroke="#b8860b" stroke-width="4"/>
  <line x1="30" y1="22" x2="50" y2="22" stroke="#b8860b" stroke-width="4"/>
</svg>`,
	"trophy": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <path d="M18 8 h28 v10 a14 14 0 0 1 -28 0 z" fill="#f5c542" stroke="#a67c00" stroke-width="2"/>
  <path d="M18 10 h-8 a10 10 0 0 0 10 12" fill="none" stroke="#a67c00" stroke-width="3"/>
  <path d="M46 10 h8 a10 10 0 0 1 -10 12" fill="none" stroke="#a67c00" stroke-width="3"/>
  <rect x="28" y="32" width="8" height="10" fill="#f5c542" stroke="#a67c00" stroke-width="2"/>
  <rect x="20" y="44" width="24" height="8" rx="2" fill="#a67c00"/>
</svg>`,
	"heart": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <path d="M32 54 C8 38 6 22 16 14 C24 8 32 14 32 20 C32 14 40 8 48 14 C58 22 56 38 32 54 z"
        fill="#e0245e" stroke="#99163f" stroke-width="2"/>
</svg>`,
}
